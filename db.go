package couchdb

import (
	"context"
	"io"
	"net/http"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"
	"github.com/goccy/go-json"

	"github.com/go-kivik/couchdb/v3/chttp"
)

type db struct {
	*client
	dbName string
}

var _ driver.DB = &db{}

// path joins the database name and any further path segments into a
// request path. Document IDs are expected to be pre-encoded.
func (d *db) path(parts ...string) string {
	p := "/" + encodeDBName(d.dbName)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// Stats returns database statistics from GET /{db}.
func (d *db) Stats(ctx context.Context) (*driver.DBStats, error) {
	resp, err := d.DoReq(ctx, http.MethodGet, d.path(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Close() // nolint: errcheck
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
	}
	stats := struct {
		Name           string          `json:"db_name"`
		CompactRunning bool            `json:"compact_running"`
		DocCount       int64           `json:"doc_count"`
		DeletedCount   int64           `json:"doc_del_count"`
		UpdateSeq      json.RawMessage `json:"update_seq"`
		DiskSize       int64           `json:"disk_size"`
		ActiveSize     int64           `json:"data_size"`
		Sizes          struct {
			File     int64 `json:"file"`
			External int64 `json:"external"`
			Active   int64 `json:"active"`
		} `json:"sizes"`
	}{}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
	}
	dbStats := &driver.DBStats{
		Name:           stats.Name,
		CompactRunning: stats.CompactRunning,
		DocCount:       stats.DocCount,
		DeletedCount:   stats.DeletedCount,
		UpdateSeq:      string(unquoteSeq(stats.UpdateSeq)),
		DiskSize:       stats.DiskSize,
		ActiveSize:     stats.ActiveSize,
		RawResponse:    json.RawMessage(raw),
	}
	// CouchDB 2.x reports sizes in a nested object.
	if stats.Sizes.File > 0 {
		dbStats.DiskSize = stats.Sizes.File
		dbStats.ActiveSize = stats.Sizes.Active
		dbStats.ExternalSize = stats.Sizes.External
	}
	return dbStats, nil
}

// unquoteSeq strips the quotes from a string-typed update_seq; CouchDB 1.x
// reports a bare integer instead.
func unquoteSeq(raw json.RawMessage) []byte {
	if len(raw) >= 2 && raw[0] == '"' {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// Delete marks a document as deleted.
func (d *db) Delete(ctx context.Context, docID, rev string, opts map[string]interface{}) (string, error) {
	if docID == "" {
		return "", missingArg("docID")
	}
	if rev == "" {
		return "", missingArg("rev")
	}
	fc, err := fullCommit(opts)
	if err != nil {
		return "", err
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return "", err
	}
	query.Set("rev", rev)
	options := &chttp.Options{
		Query:      query,
		FullCommit: fc,
	}
	resp, err := d.DoReq(ctx, http.MethodDelete, d.path(chttp.EncodeDocID(docID)), options)
	if err != nil {
		return "", err
	}
	defer resp.Close() // nolint: errcheck
	return resp.Rev()
}

var _ driver.Copier = &db{}

// Copy copies sourceID to targetID using the COPY method.
func (d *db) Copy(ctx context.Context, targetID, sourceID string, opts map[string]interface{}) (string, error) {
	if sourceID == "" {
		return "", missingArg("sourceID")
	}
	if targetID == "" {
		return "", missingArg("targetID")
	}
	fc, err := fullCommit(opts)
	if err != nil {
		return "", err
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return "", err
	}
	options := &chttp.Options{
		Query:       query,
		Destination: targetID,
		FullCommit:  fc,
	}
	resp, err := d.DoReq(ctx, "COPY", d.path(chttp.EncodeDocID(sourceID)), options)
	if err != nil {
		return "", err
	}
	defer resp.Close() // nolint: errcheck
	return resp.Rev()
}
