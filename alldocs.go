package couchdb

import (
	"context"
	"net/http"

	"github.com/go-kivik/kivik/v3/driver"

	"github.com/go-kivik/couchdb/v3/chttp"
)

// AllDocs lists all documents in the database. When the keys option is
// present the request is sent as a POST, to accommodate an arbitrary number
// of keys.
func (d *db) AllDocs(ctx context.Context, opts map[string]interface{}) (driver.Rows, error) {
	return d.rowsQuery(ctx, d.path("_all_docs"), opts)
}

var _ driver.DesignDocer = &db{}

// DesignDocs lists all design documents in the database.
func (d *db) DesignDocs(ctx context.Context, opts map[string]interface{}) (driver.Rows, error) {
	return d.rowsQuery(ctx, d.path("_design_docs"), opts)
}

var _ driver.LocalDocer = &db{}

// LocalDocs lists all local documents in the database.
func (d *db) LocalDocs(ctx context.Context, opts map[string]interface{}) (driver.Rows, error) {
	return d.rowsQuery(ctx, d.path("_local_docs"), opts)
}

// rowsQuery performs a view-style query against path and returns a
// streaming row iterator over the response.
func (d *db) rowsQuery(ctx context.Context, path string, opts map[string]interface{}) (driver.Rows, error) {
	query, keys, err := viewQuery(opts)
	if err != nil {
		return nil, err
	}
	options := &chttp.Options{Query: query}
	method := http.MethodGet
	if keys != nil {
		method = http.MethodPost
		options.JSON = map[string]interface{}{"keys": keys}
	}
	resp, err := d.DoReq(ctx, method, path, options)
	if err != nil {
		return nil, err
	}
	return newRows(resp.Body), nil
}
