package couchdb

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-kivik/kivik/v3/driver"

	"github.com/go-kivik/couchdb/v3/chttp"
)

// Compact schedules compaction of the database.
func (d *db) Compact(ctx context.Context) error {
	_, err := d.DoJSON(ctx, http.MethodPost, d.path("_compact"), jsonBody(), nil)
	return err
}

// CompactView schedules compaction of the named design document's view
// indexes. The _design/ prefix is optional.
func (d *db) CompactView(ctx context.Context, ddocID string) error {
	if ddocID == "" {
		return missingArg("ddocID")
	}
	ddoc := url.PathEscape(strings.TrimPrefix(ddocID, "_design/"))
	_, err := d.DoJSON(ctx, http.MethodPost, d.path("_compact", ddoc), jsonBody(), nil)
	return err
}

// ViewCleanup removes stale view index files.
func (d *db) ViewCleanup(ctx context.Context) error {
	_, err := d.DoJSON(ctx, http.MethodPost, d.path("_view_cleanup"), jsonBody(), nil)
	return err
}

var _ driver.Flusher = &db{}

// Flush requests a commit of any uncommitted data via _ensure_full_commit.
func (d *db) Flush(ctx context.Context) error {
	_, err := d.DoJSON(ctx, http.MethodPost, d.path("_ensure_full_commit"), jsonBody(), nil)
	return err
}

// jsonBody returns options carrying an empty JSON body. CouchDB requires a
// JSON Content-Type on these POST endpoints even with no payload.
func jsonBody() *chttp.Options {
	return &chttp.Options{Body: strings.NewReader("")}
}
