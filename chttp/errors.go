package chttp

import (
	"io"
	"net/http"

	"github.com/go-kivik/kivik/v3"
	"github.com/goccy/go-json"
)

// couchError is the standard error response body returned by CouchDB.
type couchError struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (e *couchError) message() string {
	switch {
	case e.Error != "" && e.Reason != "":
		return e.Error + ": " + e.Reason
	case e.Error != "":
		return e.Error
	default:
		return e.Reason
	}
}

// ResponseError converts an error response into a *kivik.Error carrying the
// HTTP status and, when the body contains a standard CouchDB error object,
// its error and reason fields. The response body is consumed and closed.
func ResponseError(resp *Response) error {
	defer resp.Body.Close() // nolint: errcheck
	var cerr couchError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(body, &cerr)
	msg := cerr.message()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &kivik.Error{HTTPStatus: resp.StatusCode, Message: msg}
}
