package couchdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"
	"github.com/goccy/go-json"

	"github.com/go-kivik/couchdb/v3/chttp"
)

// Taken verbatim from http://docs.couchdb.org/en/2.0.0/api/database/common.html
var validDBNameRE = regexp.MustCompile("^[a-z_][a-z0-9_$()+/-]*$")

func illegalDBName(dbname string) error {
	return &kivik.Error{
		HTTPStatus: http.StatusBadRequest,
		Message:    fmt.Sprintf("Name: '%s'. Only lowercase characters (a-z), digits (0-9), and any of the characters _, $, (, ), +, -, and / are allowed. Must begin with a letter.", dbname),
	}
}

// AllDBs returns a list of all databases on the server.
func (c *client) AllDBs(ctx context.Context, opts map[string]interface{}) ([]string, error) {
	query, err := optionsToParams(opts)
	if err != nil {
		return nil, err
	}
	var allDBs []string
	_, err = c.DoJSON(ctx, http.MethodGet, "/_all_dbs", &chttp.Options{Query: query}, &allDBs)
	return allDBs, err
}

// CreateDB creates a database.
func (c *client) CreateDB(ctx context.Context, dbName string, opts map[string]interface{}) error {
	if dbName == "" {
		return missingArg("dbName")
	}
	if !validDBNameRE.MatchString(dbName) {
		return illegalDBName(dbName)
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return err
	}
	_, err = c.DoJSON(ctx, http.MethodPut, "/"+encodeDBName(dbName), &chttp.Options{Query: query}, nil)
	return err
}

// DBExists returns true if the database exists.
func (c *client) DBExists(ctx context.Context, dbName string, _ map[string]interface{}) (bool, error) {
	if dbName == "" {
		return false, missingArg("dbName")
	}
	_, err := c.Head(ctx, "/"+encodeDBName(dbName), nil)
	if kivik.StatusCode(err) == http.StatusNotFound {
		return false, nil
	}
	return err == nil, err
}

// DestroyDB deletes the database.
func (c *client) DestroyDB(ctx context.Context, dbName string, _ map[string]interface{}) error {
	if dbName == "" {
		return missingArg("dbName")
	}
	_, err := c.DoJSON(ctx, http.MethodDelete, "/"+encodeDBName(dbName), nil, nil)
	return err
}

// Version returns the server's version info, from GET /.
func (c *client) Version(ctx context.Context) (*driver.Version, error) {
	info := struct {
		Version string `json:"version"`
		Vendor  struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"vendor"`
		Features []string `json:"features"`
	}{}
	resp, err := c.DoReq(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Close() // nolint: errcheck
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
	}
	return &driver.Version{
		Version:     info.Version,
		Vendor:      info.Vendor.Name,
		Features:    info.Features,
		RawResponse: json.RawMessage(raw),
	}, nil
}

var _ driver.Pinger = &client{}

// Ping reports whether the server is up, preferring the /_up endpoint and
// falling back to HEAD / for servers that predate it.
func (c *client) Ping(ctx context.Context) (bool, error) {
	resp, err := c.Head(ctx, "/_up", nil)
	switch kivik.StatusCode(err) {
	case http.StatusNotFound, http.StatusBadRequest:
		resp, err = c.Head(ctx, "/", nil)
		return err == nil && resp.StatusCode < 400, err
	}
	if err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusOK, nil
}
