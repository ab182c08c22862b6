package couchdb

import (
	"context"
	"net/http"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"

	"github.com/go-kivik/couchdb/v3/chttp"
)

type couch struct{}

var _ driver.Driver = &couch{}

// Identifying constants
const (
	Version = "3.0.0"
	Vendor  = "Kivik CouchDB Adaptor"
)

func init() {
	kivik.Register("couch", &couch{})
}

// Special option keys. These are interpreted by the driver rather than
// passed along as URL query parameters.
const (
	// OptionFullCommit sets the X-Couch-Full-Commit header on the request
	// when set to true.
	OptionFullCommit = "X-Couch-Full-Commit"

	// OptionIfNoneMatch sets the If-None-Match header on the request.
	OptionIfNoneMatch = "If-None-Match"
)

type client struct {
	*chttp.Client
}

var _ driver.Client = &client{}

// NewClient connects to a CouchDB server. The DSN must be a http:// or
// https:// URL, optionally carrying basic-auth credentials.
func (d *couch) NewClient(dsn string) (driver.Client, error) {
	return newClient(dsn)
}

func newClient(dsn string, options ...chttp.Option) (*client, error) {
	c, err := chttp.New(dsn, options...)
	if err != nil {
		return nil, err
	}
	return &client{Client: c}, nil
}

// NewClient connects to a CouchDB server with extra connection options,
// such as request logging. It is a convenience for callers constructing the
// driver directly rather than through kivik.Register.
func NewClient(dsn string, options ...chttp.Option) (driver.Client, error) {
	return newClient(dsn, options...)
}

func (c *client) DB(_ context.Context, dbName string, _ map[string]interface{}) (driver.DB, error) {
	return c.newDB(dbName)
}

func (c *client) newDB(dbName string) (*db, error) {
	if dbName == "" {
		return nil, missingArg("dbName")
	}
	return &db{
		client: c,
		dbName: dbName,
	}, nil
}

func missingArg(arg string) error {
	return &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: "kivik: " + arg + " required"}
}
