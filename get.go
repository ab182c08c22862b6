package couchdb

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"
	"github.com/goccy/go-json"

	"github.com/go-kivik/couchdb/v3/chttp"
)

// Get fetches a document. The response body is buffered, so the returned
// document's Body may be read after the HTTP response is released.
func (d *db) Get(ctx context.Context, docID string, opts map[string]interface{}) (*driver.Document, error) {
	if docID == "" {
		return nil, missingArg("docID")
	}
	inm, err := ifNoneMatch(opts)
	if err != nil {
		return nil, err
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return nil, err
	}
	options := &chttp.Options{
		Query:       query,
		IfNoneMatch: inm,
	}
	resp, err := d.DoReq(ctx, http.MethodGet, d.path(chttp.EncodeDocID(docID)), options)
	if err != nil {
		return nil, err
	}
	defer resp.Close() // nolint: errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
	}
	rev, err := extractRev(resp, body)
	if err != nil {
		return nil, err
	}
	return &driver.Document{
		ContentLength: int64(len(body)),
		Rev:           rev,
		Body:          io.NopCloser(bytes.NewReader(body)),
	}, nil
}

// extractRev reads the document revision from the ETag header, falling back
// to the _rev field of the body for responses that carry no ETag, such as
// those to open_revs queries.
func extractRev(resp *chttp.Response, body []byte) (string, error) {
	if rev, err := resp.Rev(); err == nil {
		return rev, nil
	}
	var doc struct {
		Rev string `json:"_rev"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
	}
	return doc.Rev, nil
}

var _ driver.MetaGetter = &db{}

// GetMeta returns the size and current revision of a document from a HEAD
// request.
func (d *db) GetMeta(ctx context.Context, docID string, opts map[string]interface{}) (int64, string, error) {
	if docID == "" {
		return 0, "", missingArg("docID")
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return 0, "", err
	}
	resp, err := d.Head(ctx, d.path(chttp.EncodeDocID(docID)), &chttp.Options{Query: query})
	if err != nil {
		return 0, "", err
	}
	rev, err := resp.Rev()
	if err != nil {
		return 0, "", err
	}
	size, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	return size, rev, nil
}
