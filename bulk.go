package couchdb

import (
	"context"
	"io"
	"net/http"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"

	"github.com/go-kivik/couchdb/v3/chttp"
)

var _ driver.BulkDocer = &db{}

// BulkDocs saves a batch of documents with a single POST to _bulk_docs.
// Per-document failures are reported through the returned result iterator,
// not as a call-level error.
func (d *db) BulkDocs(ctx context.Context, docs []interface{}, opts map[string]interface{}) (driver.BulkResults, error) {
	if docs == nil {
		return nil, missingArg("docs")
	}
	fc, err := fullCommit(opts)
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{"docs": docs}
	if newEdits, ok := opts["new_edits"]; ok {
		body["new_edits"] = newEdits
		delete(opts, "new_edits")
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return nil, err
	}
	options := &chttp.Options{
		JSON:       body,
		Query:      query,
		FullCommit: fc,
	}
	var results []bulkResult
	if _, err := d.DoJSON(ctx, http.MethodPost, d.path("_bulk_docs"), options, &results); err != nil {
		return nil, err
	}
	return &bulkResults{results: results}, nil
}

type bulkResult struct {
	ID     string `json:"id"`
	Rev    string `json:"rev"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type bulkResults struct {
	results []bulkResult
}

var _ driver.BulkResults = &bulkResults{}

func (r *bulkResults) Next(result *driver.BulkResult) error {
	if len(r.results) == 0 {
		return io.EOF
	}
	next := r.results[0]
	r.results = r.results[1:]
	result.ID = next.ID
	result.Rev = next.Rev
	result.Error = nil
	if next.Error != "" {
		status := http.StatusInternalServerError
		switch next.Error {
		case "conflict":
			status = http.StatusConflict
		case "forbidden":
			status = http.StatusForbidden
		case "unauthorized":
			status = http.StatusUnauthorized
		}
		result.Error = &kivik.Error{HTTPStatus: status, Message: next.Error + ": " + next.Reason}
	}
	return nil
}

func (r *bulkResults) Close() error {
	r.results = nil
	return nil
}
