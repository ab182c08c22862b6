package couchdb

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"
	"github.com/goccy/go-json"
)

// rows iterates over a standard CouchDB row container, of the form
//
//	{"total_rows": 2, "offset": 0, "rows": [ ... ], "update_seq": "..."}
//
// The body is decoded incrementally, so result sets larger than memory can
// be consumed. Metadata fields are captured whether they appear before or
// after the rows array.
type rows struct {
	body io.ReadCloser
	dec  *json.Decoder

	started  bool
	finished bool

	offset    int64
	totalRows int64
	updateSeq string
}

var _ driver.Rows = &rows{}

func newRows(body io.ReadCloser) *rows {
	return &rows{
		body: body,
		dec:  json.NewDecoder(body),
	}
}

func (r *rows) Offset() int64     { return r.offset }
func (r *rows) TotalRows() int64  { return r.totalRows }
func (r *rows) UpdateSeq() string { return r.updateSeq }

func (r *rows) Close() error {
	return r.body.Close()
}

func (r *rows) Next(row *driver.Row) error {
	if r.finished {
		return io.EOF
	}
	if !r.started {
		if err := r.begin(); err != nil {
			return gatewayErr(err)
		}
		r.started = true
	}
	if !r.dec.More() {
		if err := r.finish(); err != nil {
			return gatewayErr(err)
		}
		r.finished = true
		return io.EOF
	}
	var raw viewRow
	if err := r.dec.Decode(&raw); err != nil {
		return gatewayErr(err)
	}
	row.ID = raw.ID
	row.Key = raw.Key
	row.Value = raw.Value
	row.Doc = raw.Doc
	if raw.Error != "" {
		status := http.StatusInternalServerError
		if raw.Error == "not_found" {
			status = http.StatusNotFound
		}
		row.Error = &kivik.Error{HTTPStatus: status, Message: raw.Error}
	} else {
		row.Error = nil
	}
	return nil
}

type viewRow struct {
	ID    string          `json:"id"`
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
	Doc   json.RawMessage `json:"doc"`
	Error string          `json:"error"`
}

// begin consumes tokens up to and including the opening bracket of the rows
// array, collecting any metadata seen on the way.
func (r *rows) begin() error {
	if err := expectDelim(r.dec, '{'); err != nil {
		return err
	}
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in result header", tok)
		}
		if key == "rows" {
			return expectDelim(r.dec, '[')
		}
		if err := r.readMeta(key); err != nil {
			return err
		}
	}
}

// finish consumes the closing bracket of the rows array and any trailing
// metadata.
func (r *rows) finish() error {
	if err := expectDelim(r.dec, ']'); err != nil {
		return err
	}
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return nil
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in result trailer", tok)
		}
		if err := r.readMeta(key); err != nil {
			return err
		}
	}
}

func (r *rows) readMeta(key string) error {
	var value json.RawMessage
	if err := r.dec.Decode(&value); err != nil {
		return err
	}
	switch key {
	case "total_rows":
		total, err := strconv.ParseInt(string(value), 10, 64)
		if err != nil {
			return err
		}
		r.totalRows = total
	case "offset":
		offset, err := strconv.ParseInt(string(value), 10, 64)
		if err != nil {
			return err
		}
		r.offset = offset
	case "update_seq":
		r.updateSeq = string(unquoteSeq(value))
	}
	return nil
}

func expectDelim(dec *json.Decoder, expected json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != expected {
		return fmt.Errorf("expected %q, found %v", expected, tok)
	}
	return nil
}

func gatewayErr(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	if _, ok := err.(*kivik.Error); ok {
		return err
	}
	return &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
}
