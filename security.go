package couchdb

import (
	"context"
	"net/http"

	"github.com/go-kivik/kivik/v3/driver"

	"github.com/go-kivik/couchdb/v3/chttp"
)

// Security fetches the database security object.
func (d *db) Security(ctx context.Context) (*driver.Security, error) {
	security := &driver.Security{}
	if _, err := d.DoJSON(ctx, http.MethodGet, d.path("_security"), nil, security); err != nil {
		return nil, err
	}
	return security, nil
}

// SetSecurity stores the database security object.
func (d *db) SetSecurity(ctx context.Context, security *driver.Security) error {
	if security == nil {
		return missingArg("security")
	}
	_, err := d.DoJSON(ctx, http.MethodPut, d.path("_security"), &chttp.Options{JSON: security}, nil)
	return err
}
