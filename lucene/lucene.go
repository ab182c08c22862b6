// Package lucene is a client for the couchdb-lucene full-text search
// service, which exposes Lucene indexes defined in design documents through
// the _fti database endpoint. Searches are plain HTTP round-trips; index
// maintenance is entirely server-side.
package lucene

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-kivik/kivik/v3"
	"github.com/goccy/go-json"

	"github.com/go-kivik/couchdb/v3/chttp"
)

// Index identifies one full-text index: a fulltext function named in a
// design document of a database.
type Index struct {
	client *chttp.Client
	dbName string
	ddoc   string
	index  string
}

// New returns a handle to a full-text index. The ddoc parameter accepts the
// design document name with or without the _design/ prefix.
func New(client *chttp.Client, dbName, ddoc, index string) *Index {
	return &Index{
		client: client,
		dbName: dbName,
		ddoc:   strings.TrimPrefix(ddoc, "_design/"),
		index:  index,
	}
}

// Query describes a full-text search.
type Query struct {
	// Q is the Lucene query string. Required.
	Q string

	// Limit caps the number of returned rows. Zero means the server
	// default.
	Limit int

	// Skip skips the given number of matches.
	Skip int

	// Sort names a field to sort on instead of relevance, e.g.
	// "updated<date>" or "\\title".
	Sort string

	// IncludeDocs requests that each row carry its document.
	IncludeDocs bool

	// Stale permits the server to answer from the index without
	// refreshing it first.
	Stale bool

	// Extra query parameters are passed through verbatim.
	Extra url.Values
}

// Result is a full-text search response.
type Result struct {
	Q              string `json:"q"`
	TotalRows      int64  `json:"total_rows"`
	Limit          int    `json:"limit"`
	Skip           int    `json:"skip"`
	SearchDuration int64  `json:"search_duration"`
	FetchDuration  int64  `json:"fetch_duration"`
	Rows           []Row  `json:"rows"`
}

// Row is a single full-text match.
type Row struct {
	ID     string                 `json:"id"`
	Score  float64                `json:"score"`
	Fields map[string]interface{} `json:"fields"`
	Doc    json.RawMessage        `json:"doc"`
}

// Search runs a full-text query against the index.
func (i *Index) Search(ctx context.Context, query Query) (*Result, error) {
	if query.Q == "" {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: "kivik: query string required"}
	}
	params := url.Values{}
	for key, values := range query.Extra {
		for _, v := range values {
			params.Add(key, v)
		}
	}
	params.Set("q", query.Q)
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Skip > 0 {
		params.Set("skip", strconv.Itoa(query.Skip))
	}
	if query.Sort != "" {
		params.Set("sort", query.Sort)
	}
	if query.IncludeDocs {
		params.Set("include_docs", "true")
	}
	if query.Stale {
		params.Set("stale", "ok")
	}
	result := &Result{}
	if _, err := i.client.DoJSON(ctx, http.MethodGet, i.path(), &chttp.Options{Query: params}, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (i *Index) path() string {
	return "/" + url.PathEscape(i.dbName) +
		"/_fti/_design/" + url.PathEscape(i.ddoc) +
		"/" + url.PathEscape(i.index)
}
