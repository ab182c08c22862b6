package test

import (
	"net/http"

	"github.com/go-kivik/kiviktest/v3"
	"github.com/go-kivik/kiviktest/v3/kt"
)

func registerCouchDBSuite() {
	kiviktest.RegisterSuite(kiviktest.SuiteCouch22, kt.SuiteConfig{
		"AllDBs.expected": []string{"_replicator", "_users"},

		"CreateDB/RW/NoAuth.status":         http.StatusUnauthorized,
		"CreateDB/RW/Admin/Recreate.status": http.StatusPreconditionFailed,

		"DestroyDB/RW/Admin/NonExistantDB.status":  http.StatusNotFound,
		"DestroyDB/RW/NoAuth/NonExistantDB.status": http.StatusNotFound,

		"AllDocs/Admin.databases":      []string{"chicken"},
		"AllDocs/Admin/chicken.status": http.StatusNotFound,

		"DBExists.databases":             []string{"chicken"},
		"DBExists/Admin/chicken.exists":  false,
		"DBExists/RW/group/Admin.exists": true,

		"Version.version": `^2\.2\.`,
		"Version.vendor":  "The Apache Software Foundation",

		// Replication is a server-side concern; the driver does not
		// trigger it.
		"GetReplications.skip": true,
		"Replicate.skip":       true,

		"Get/RW/group/Admin/bogus.status":  http.StatusNotFound,
		"Get/RW/group/NoAuth/bogus.status": http.StatusNotFound,

		"Put/RW/Admin/group/LeadingUnderscoreInID.status":  http.StatusBadRequest,
		"Put/RW/Admin/group/Conflict.status":               http.StatusConflict,
		"Put/RW/NoAuth/group/LeadingUnderscoreInID.status": http.StatusBadRequest,
		"Put/RW/NoAuth/group/DesignDoc.status":             http.StatusUnauthorized,
		"Put/RW/NoAuth/group/Conflict.status":              http.StatusConflict,

		"Delete/RW/Admin/group/MissingDoc.status":       http.StatusNotFound,
		"Delete/RW/Admin/group/InvalidRevFormat.status": http.StatusBadRequest,
		"Delete/RW/Admin/group/WrongRev.status":         http.StatusConflict,

		"Find.skip":        true, // Mango queries not supported by this driver
		"Explain.skip":     true,
		"CreateIndex.skip": true,
		"GetIndexes.skip":  true,
		"DeleteIndex.skip": true,

		"DBUpdates.skip": true,
		"Changes/Continuous.options": map[string]interface{}{
			"feed":      "continuous",
			"since":     "now",
			"heartbeat": 6000,
		},

		"Stats.skip":   false,
		"Compact.skip": false,

		"GetAttachment/RW/group/Admin/foo/NotFound.status":  http.StatusNotFound,
		"GetAttachment/RW/group/NoAuth/foo/NotFound.status": http.StatusNotFound,
	})
}
