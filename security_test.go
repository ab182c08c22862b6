package couchdb

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/go-kivik/kivik/v3/driver"
	"gitlab.com/flimzy/testy"
)

func TestSecurity(t *testing.T) {
	type tt struct {
		handler  http.Handler
		expected *driver.Security
		status   int
		err      string
	}
	tests := testy.NewTable()
	tests.Add("empty security object", tt{
		handler:  jsonHandler(http.StatusOK, `{}`),
		expected: &driver.Security{},
	})
	tests.Add("admins and members", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/testdb/_security" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			_, _ = w.Write([]byte(`{"admins":{"names":["bob"],"roles":["admin"]},"members":{"names":["alice"]}}`))
		}),
		expected: &driver.Security{
			Admins:  driver.Members{Names: []string{"bob"}, Roles: []string{"admin"}},
			Members: driver.Members{Names: []string{"alice"}},
		},
	})
	tests.Add("unauthorized", tt{
		handler: jsonHandler(http.StatusUnauthorized, `{"error":"unauthorized","reason":"You are not authorized to access this db."}`),
		status:  http.StatusUnauthorized,
		err:     "unauthorized: You are not authorized to access this db.",
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		db := newTestDB(t, tt.handler)
		security, err := db.Security(context.Background())
		testy.StatusError(t, tt.err, tt.status, err)
		if d := testy.DiffInterface(tt.expected, security); d != nil {
			t.Error(d)
		}
	})
}

func TestSetSecurity(t *testing.T) {
	type tt struct {
		handler  http.Handler
		security *driver.Security
		status   int
		err      string
	}
	tests := testy.NewTable()
	tests.Add("nil security", tt{
		handler: jsonHandler(http.StatusOK, `{"ok":true}`),
		status:  http.StatusBadRequest,
		err:     "kivik: security required",
	})
	tests.Add("success", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("unexpected method: %s", r.Method)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"admins":{"names":["bob"]},"members":{}}` {
				t.Errorf("unexpected body: %s", string(body))
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
		}),
		security: &driver.Security{
			Admins: driver.Members{Names: []string{"bob"}},
		},
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		db := newTestDB(t, tt.handler)
		err := db.SetSecurity(context.Background(), tt.security)
		testy.StatusError(t, tt.err, tt.status, err)
	})
}
