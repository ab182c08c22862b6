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

var _ driver.RevsDiffer = &db{}

// RevsDiff asks the server which of the given revisions it is missing. The
// revMap must marshal to a JSON object mapping document IDs to lists of
// revisions. Each returned row's Value holds the missing and
// possible_ancestors fields for one document.
func (d *db) RevsDiff(ctx context.Context, revMap interface{}) (driver.Rows, error) {
	if revMap == nil {
		return nil, missingArg("revMap")
	}
	resp, err := d.DoReq(ctx, http.MethodPost, d.path("_revs_diff"), &chttp.Options{JSON: revMap})
	if err != nil {
		return nil, err
	}
	return &revsDiffRows{
		body: resp.Body,
		dec:  json.NewDecoder(resp.Body),
	}, nil
}

// revsDiffRows iterates the _revs_diff response object, one key per row.
type revsDiffRows struct {
	body     io.ReadCloser
	dec      *json.Decoder
	started  bool
	finished bool
}

var _ driver.Rows = &revsDiffRows{}

func (r *revsDiffRows) Offset() int64     { return 0 }
func (r *revsDiffRows) TotalRows() int64  { return 0 }
func (r *revsDiffRows) UpdateSeq() string { return "" }

func (r *revsDiffRows) Close() error {
	return r.body.Close()
}

func (r *revsDiffRows) Next(row *driver.Row) error {
	if r.finished {
		return io.EOF
	}
	if !r.started {
		if err := expectDelim(r.dec, '{'); err != nil {
			return gatewayErr(err)
		}
		r.started = true
	}
	tok, err := r.dec.Token()
	if err != nil {
		return gatewayErr(err)
	}
	if delim, ok := tok.(json.Delim); ok && delim == '}' {
		r.finished = true
		return io.EOF
	}
	id, ok := tok.(string)
	if !ok {
		return &kivik.Error{HTTPStatus: http.StatusBadGateway, Message: "kivik: unexpected token in _revs_diff response"}
	}
	var value json.RawMessage
	if err := r.dec.Decode(&value); err != nil {
		return gatewayErr(err)
	}
	row.ID = id
	row.Key = nil
	row.Value = value
	row.Doc = nil
	row.Error = nil
	return nil
}
