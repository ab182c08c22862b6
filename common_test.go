package couchdb

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := newClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newTestDB(t *testing.T, handler http.Handler) *db {
	t.Helper()
	c := newTestClient(t, handler)
	db, err := c.newDB("testdb")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

// jsonHandler replies with a fixed status and JSON body.
func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}
