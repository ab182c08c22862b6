package couchdb

import (
	"context"
	"io"
	"net/http"
	"testing"

	"gitlab.com/flimzy/testy"
)

func TestGet(t *testing.T) {
	type tt struct {
		handler      http.Handler
		id           string
		options      map[string]interface{}
		expectedRev  string
		expectedBody string
		status       int
		err          string
	}
	tests := testy.NewTable()
	tests.Add("no docid", tt{
		handler: jsonHandler(http.StatusOK, `{}`),
		status:  http.StatusBadRequest,
		err:     "kivik: docID required",
	})
	tests.Add("not found", tt{
		handler: jsonHandler(http.StatusNotFound, `{"error":"not_found","reason":"missing"}`),
		id:      "foo",
		status:  http.StatusNotFound,
		err:     "not_found: missing",
	})
	tests.Add("success", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/testdb/foo" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Header().Set("ETag", `"1-4c6114c65e295552ab1019e2b046b10e"`)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"_id":"foo","_rev":"1-4c6114c65e295552ab1019e2b046b10e","value":"bar"}`))
		}),
		id:           "foo",
		expectedRev:  "1-4c6114c65e295552ab1019e2b046b10e",
		expectedBody: `{"_id":"foo","_rev":"1-4c6114c65e295552ab1019e2b046b10e","value":"bar"}`,
	})
	tests.Add("rev from body when no ETag", tt{
		handler:      jsonHandler(http.StatusOK, `{"_id":"foo","_rev":"3-z"}`),
		id:           "foo",
		expectedRev:  "3-z",
		expectedBody: `{"_id":"foo","_rev":"3-z"}`,
	})
	tests.Add("specific rev", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rev := r.URL.Query().Get("rev"); rev != "2-x" {
				t.Errorf("unexpected rev param: %s", rev)
			}
			w.Header().Set("ETag", `"2-x"`)
			_, _ = w.Write([]byte(`{"_id":"foo","_rev":"2-x"}`))
		}),
		id:           "foo",
		options:      map[string]interface{}{"rev": "2-x"},
		expectedRev:  "2-x",
		expectedBody: `{"_id":"foo","_rev":"2-x"}`,
	})
	tests.Add("design doc path", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/testdb/_design/users" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Header().Set("ETag", `"2-a"`)
			_, _ = w.Write([]byte(`{"_id":"_design/users","_rev":"2-a"}`))
		}),
		id:           "_design/users",
		expectedRev:  "2-a",
		expectedBody: `{"_id":"_design/users","_rev":"2-a"}`,
	})
	tests.Add("invalid option type", tt{
		handler: jsonHandler(http.StatusOK, `{}`),
		id:      "foo",
		options: map[string]interface{}{"rev": 1.5},
		status:  http.StatusBadRequest,
		err:     "kivik: invalid type float64 for options",
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		db := newTestDB(t, tt.handler)
		doc, err := db.Get(context.Background(), tt.id, tt.options)
		testy.StatusError(t, tt.err, tt.status, err)
		if doc.Rev != tt.expectedRev {
			t.Errorf("Unexpected rev: %s", doc.Rev)
		}
		body, err := io.ReadAll(doc.Body)
		if err != nil {
			t.Fatal(err)
		}
		_ = doc.Body.Close()
		if string(body) != tt.expectedBody {
			t.Errorf("Unexpected body: %s", string(body))
		}
		if doc.ContentLength != int64(len(tt.expectedBody)) {
			t.Errorf("Unexpected content length: %d", doc.ContentLength)
		}
	})
}

func TestGetMeta(t *testing.T) {
	type tt struct {
		handler      http.Handler
		id           string
		expectedSize int64
		expectedRev  string
		status       int
		err          string
	}
	tests := testy.NewTable()
	tests.Add("no docid", tt{
		handler: jsonHandler(http.StatusOK, `{}`),
		status:  http.StatusBadRequest,
		err:     "kivik: docID required",
	})
	tests.Add("not found", tt{
		handler: jsonHandler(http.StatusNotFound, ``),
		id:      "foo",
		status:  http.StatusNotFound,
		err:     "Not Found",
	})
	tests.Add("success", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("unexpected method: %s", r.Method)
			}
			w.Header().Set("ETag", `"1-aaa"`)
			w.Header().Set("Content-Length", "44")
			w.WriteHeader(http.StatusOK)
		}),
		id:           "foo",
		expectedSize: 44,
		expectedRev:  "1-aaa",
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		db := newTestDB(t, tt.handler)
		size, rev, err := db.GetMeta(context.Background(), tt.id, nil)
		testy.StatusError(t, tt.err, tt.status, err)
		if size != tt.expectedSize {
			t.Errorf("Unexpected size: %d", size)
		}
		if rev != tt.expectedRev {
			t.Errorf("Unexpected rev: %s", rev)
		}
	})
}
