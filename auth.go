package couchdb

import (
	"context"
	"net/http"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"

	"github.com/go-kivik/couchdb/v3/chttp"
)

var _ driver.Authenticator = &client{}

// authenticator is the interface implemented by the authentication methods
// this driver accepts.
type authenticator interface {
	auth(ctx context.Context, c *chttp.Client) error
}

// Authenticate authenticates the client connection. The authenticator must
// be one provided by this package, such as BasicAuth or CookieAuth.
func (c *client) Authenticate(ctx context.Context, a interface{}) error {
	auth, ok := a.(authenticator)
	if !ok {
		return &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: "kivik: invalid authenticator"}
	}
	return auth.auth(ctx, c.Client)
}

type basicAuth struct {
	username string
	password string
}

// BasicAuth returns an authenticator that sends credentials with every
// request using HTTP Basic authentication.
func BasicAuth(username, password string) interface{} {
	return &basicAuth{username: username, password: password}
}

func (a *basicAuth) auth(_ context.Context, c *chttp.Client) error {
	c.SetBasicAuth(a.username, a.password)
	return nil
}

type cookieAuth struct {
	username string
	password string
}

// CookieAuth returns an authenticator that logs in through the /_session
// endpoint, then relies on the session cookie for future requests.
func CookieAuth(username, password string) interface{} {
	return &cookieAuth{username: username, password: password}
}

func (a *cookieAuth) auth(ctx context.Context, c *chttp.Client) error {
	_, err := c.CookieLogin(ctx, a.username, a.password)
	return err
}
