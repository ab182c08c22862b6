package chttp

import (
	"context"
	"io"
	"net/http"
	"testing"

	"gitlab.com/flimzy/testy"
)

func TestCookieLogin(t *testing.T) {
	type tt struct {
		handler http.Handler
		name    string
		status  int
		err     string
	}
	tests := testy.NewTable()
	tests.Add("success", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if r.URL.Path != "/_session" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"name":"bob","password":"secret"}` {
				t.Errorf("unexpected body: %s", string(body))
			}
			http.SetCookie(w, &http.Cookie{Name: "AuthSession", Value: "Ym9i"})
			_, _ = w.Write([]byte(`{"ok":true,"name":"bob","roles":["_admin"]}`))
		}),
		name: "bob",
	})
	tests.Add("bad credentials", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","reason":"Name or password is incorrect."}`))
		}),
		status: http.StatusUnauthorized,
		err:    "unauthorized: Name or password is incorrect.",
	})
	tests.Add("ok false", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ok":false}`))
		}),
		status: http.StatusUnauthorized,
		err:    "authentication failed",
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		c := newTestClient(t, tt.handler)
		session, err := c.CookieLogin(context.Background(), "bob", "secret")
		testy.StatusError(t, tt.err, tt.status, err)
		if !session.OK {
			t.Error("expected session OK")
		}
	})
}

func TestCookiePersistence(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/_session" && r.Method == http.MethodPost {
			http.SetCookie(w, &http.Cookie{Name: "AuthSession", Value: "Ym9i"})
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		cookie, err := r.Cookie("AuthSession")
		if err != nil || cookie.Value != "Ym9i" {
			t.Errorf("session cookie not sent: %v", err)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	if _, err := c.CookieLogin(context.Background(), "bob", "secret"); err != nil {
		t.Fatal(err)
	}
	resp, err := c.DoReq(context.Background(), http.MethodGet, "/_up", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Close()
}

func TestGetSession(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_session" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ok":true,"userCtx":{"name":"bob","roles":["_admin"]},"info":{"authenticated":"cookie","authentication_db":"_users"}}`))
	}))
	session, err := c.GetSession(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if session.UserContext.Name != "bob" {
		t.Errorf("Unexpected user: %s", session.UserContext.Name)
	}
	if session.Info.AuthenticationMethod != "cookie" {
		t.Errorf("Unexpected auth method: %s", session.Info.AuthenticationMethod)
	}
}

func TestCookieLogout(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	if err := c.CookieLogout(context.Background()); err != nil {
		t.Fatal(err)
	}
}
