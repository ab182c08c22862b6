package couchdb

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-kivik/kivik/v3"

	"github.com/go-kivik/couchdb/v3/chttp"
)

var reservedPrefixes = []string{"_design/", "_local/"}

func validateID(id string) error {
	if id[0] != '_' {
		return nil
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return nil
		}
	}
	return &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: "only reserved document ids may start with underscore"}
}

// Put saves a document under docID. The server assigns the new revision; it
// is returned, never written back into the document.
func (d *db) Put(ctx context.Context, docID string, doc interface{}, opts map[string]interface{}) (string, error) {
	if docID == "" {
		return "", missingArg("docID")
	}
	if err := validateID(docID); err != nil {
		return "", err
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
		JSON:       doc,
		Query:      query,
		FullCommit: fc,
	}
	var result struct {
		Rev string `json:"rev"`
	}
	if _, err := d.DoJSON(ctx, http.MethodPut, d.path(chttp.EncodeDocID(docID)), options, &result); err != nil {
		return "", err
	}
	return result.Rev, nil
}

// CreateDoc saves a document, letting the server pick its ID.
func (d *db) CreateDoc(ctx context.Context, doc interface{}, opts map[string]interface{}) (string, string, error) {
	fc, err := fullCommit(opts)
	if err != nil {
		return "", "", err
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return "", "", err
	}
	options := &chttp.Options{
		JSON:       doc,
		Query:      query,
		FullCommit: fc,
	}
	var result struct {
		ID  string `json:"id"`
		Rev string `json:"rev"`
	}
	if _, err := d.DoJSON(ctx, http.MethodPost, d.path(), options, &result); err != nil {
		return "", "", err
	}
	return result.ID, result.Rev, nil
}
