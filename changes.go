package couchdb

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"
	"github.com/goccy/go-json"

	"github.com/go-kivik/couchdb/v3/chttp"
)

// Changes queries the _changes feed. The normal and longpoll feeds return a
// single result set; feed=continuous streams newline-delimited change
// events until the connection is closed or the context is canceled.
func (d *db) Changes(ctx context.Context, opts map[string]interface{}) (driver.Changes, error) {
	feed, _ := opts["feed"].(string)
	if feed == "eventsource" {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: "kivik: eventsource feed type not supported"}
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return nil, err
	}
	resp, err := d.DoReq(ctx, http.MethodGet, d.path("_changes"), &chttp.Options{Query: query})
	if err != nil {
		return nil, err
	}
	c := &changes{
		body:       resp.Body,
		dec:        json.NewDecoder(resp.Body),
		etag:       resp.Header.Get("ETag"),
		continuous: feed == "continuous",
	}
	return c, nil
}

type changes struct {
	body io.ReadCloser
	dec  *json.Decoder

	continuous bool
	started    bool
	finished   bool

	etag    string
	lastSeq string
	pending int64
}

var _ driver.Changes = &changes{}

func (c *changes) ETag() string    { return c.etag }
func (c *changes) LastSeq() string { return c.lastSeq }
func (c *changes) Pending() int64  { return c.pending }

func (c *changes) Close() error {
	return c.body.Close()
}

// changeEvent is a single entry of the _changes feed, in either framing.
type changeEvent struct {
	ID      string          `json:"id"`
	Seq     json.RawMessage `json:"seq"`
	Deleted bool            `json:"deleted"`
	Changes []struct {
		Rev string `json:"rev"`
	} `json:"changes"`
	Doc     json.RawMessage `json:"doc"`
	LastSeq json.RawMessage `json:"last_seq"`
	Pending int64           `json:"pending"`
}

func (c *changes) Next(change *driver.Change) error {
	if c.finished {
		return io.EOF
	}
	if c.continuous {
		return c.nextContinuous(change)
	}
	return c.nextNormal(change)
}

// nextContinuous reads the next newline-delimited event. The feed's final
// line carries only last_seq and pending.
func (c *changes) nextContinuous(change *driver.Change) error {
	for {
		var event changeEvent
		if err := c.dec.Decode(&event); err != nil {
			if err == io.EOF {
				c.finished = true
			}
			return gatewayErr(err)
		}
		if event.LastSeq != nil {
			c.finished = true
			c.lastSeq = string(unquoteSeq(event.LastSeq))
			c.pending = event.Pending
			return io.EOF
		}
		// Heartbeat lines decode to an empty event.
		if event.ID == "" && event.Seq == nil {
			continue
		}
		setChange(change, &event)
		return nil
	}
}

// nextNormal walks the {"results": [...], "last_seq": ..., "pending": N}
// container incrementally.
func (c *changes) nextNormal(change *driver.Change) error {
	if !c.started {
		if err := c.begin(); err != nil {
			return gatewayErr(err)
		}
		c.started = true
	}
	if !c.dec.More() {
		if err := c.finish(); err != nil {
			return gatewayErr(err)
		}
		c.finished = true
		return io.EOF
	}
	var event changeEvent
	if err := c.dec.Decode(&event); err != nil {
		return gatewayErr(err)
	}
	setChange(change, &event)
	return nil
}

func setChange(change *driver.Change, event *changeEvent) {
	change.ID = event.ID
	change.Seq = string(unquoteSeq(event.Seq))
	change.Deleted = event.Deleted
	revs := make([]string, 0, len(event.Changes))
	for _, ch := range event.Changes {
		revs = append(revs, ch.Rev)
	}
	change.Changes = revs
	change.Doc = event.Doc
}

func (c *changes) begin() error {
	if err := expectDelim(c.dec, '{'); err != nil {
		return err
	}
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in changes header", tok)
		}
		if key == "results" {
			return expectDelim(c.dec, '[')
		}
		if err := c.readMeta(key); err != nil {
			return err
		}
	}
}

func (c *changes) finish() error {
	if err := expectDelim(c.dec, ']'); err != nil {
		return err
	}
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return nil
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in changes trailer", tok)
		}
		if err := c.readMeta(key); err != nil {
			return err
		}
	}
}

func (c *changes) readMeta(key string) error {
	var value json.RawMessage
	if err := c.dec.Decode(&value); err != nil {
		return err
	}
	switch key {
	case "last_seq":
		c.lastSeq = string(unquoteSeq(value))
	case "pending":
		if err := json.Unmarshal(value, &c.pending); err != nil {
			return err
		}
	}
	return nil
}
