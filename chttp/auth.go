package chttp

import (
	"context"
	"net/http"

	"github.com/go-kivik/kivik/v3"
)

// Session is the authentication state reported by GET /_session.
type Session struct {
	OK          bool        `json:"ok"`
	UserContext UserContext `json:"userCtx"`
	Info        AuthInfo    `json:"info"`
}

// UserContext describes the authenticated user.
type UserContext struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// AuthInfo describes the server's authentication configuration.
type AuthInfo struct {
	AuthenticationMethod   string   `json:"authenticated"`
	AuthenticationDB       string   `json:"authentication_db"`
	AuthenticationHandlers []string `json:"authentication_handlers"`
}

// CookieLogin authenticates with the server via POST /_session. The session
// cookie is stored in the client's cookie jar and sent on all future
// requests.
func (c *Client) CookieLogin(ctx context.Context, username, password string) (*Session, error) {
	body := struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}{Name: username, Password: password}
	session := &Session{}
	if _, err := c.DoJSON(ctx, http.MethodPost, "/_session", &Options{JSON: body}, session); err != nil {
		return nil, err
	}
	if !session.OK {
		return nil, &kivik.Error{HTTPStatus: http.StatusUnauthorized, Message: "authentication failed"}
	}
	return session, nil
}

// CookieLogout terminates the current session via DELETE /_session.
func (c *Client) CookieLogout(ctx context.Context) error {
	_, err := c.DoJSON(ctx, http.MethodDelete, "/_session", nil, nil)
	return err
}

// GetSession returns the current session information.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	session := &Session{}
	if _, err := c.DoJSON(ctx, http.MethodGet, "/_session", nil, session); err != nil {
		return nil, err
	}
	return session, nil
}
