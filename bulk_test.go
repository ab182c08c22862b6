package couchdb

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-kivik/kivik/v3/driver"
	"gitlab.com/flimzy/testy"
)

func TestBulkDocs(t *testing.T) {
	type result struct {
		ID     string
		Rev    string
		Status int
		Err    string
	}
	type tt struct {
		handler  http.Handler
		docs     []interface{}
		options  map[string]interface{}
		expected []result
		status   int
		err      string
	}
	tests := testy.NewTable()
	tests.Add("nil docs", tt{
		handler: jsonHandler(http.StatusOK, `[]`),
		status:  http.StatusBadRequest,
		err:     "kivik: docs required",
	})
	tests.Add("success", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if r.URL.Path != "/testdb/_bulk_docs" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"docs":[{"_id":"foo"},{"_id":"bar"}]}` {
				t.Errorf("unexpected body: %s", string(body))
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[
				{"id":"foo","rev":"1-abc"},
				{"id":"bar","rev":"1-def"}
			]`))
		}),
		docs: []interface{}{
			map[string]string{"_id": "foo"},
			map[string]string{"_id": "bar"},
		},
		expected: []result{
			{ID: "foo", Rev: "1-abc"},
			{ID: "bar", Rev: "1-def"},
		},
	})
	tests.Add("per-document conflict", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[
				{"id":"foo","rev":"2-abc"},
				{"id":"bar","error":"conflict","reason":"Document update conflict."}
			]`))
		}),
		docs: []interface{}{
			map[string]string{"_id": "foo", "_rev": "1-abc"},
			map[string]string{"_id": "bar"},
		},
		expected: []result{
			{ID: "foo", Rev: "2-abc"},
			{ID: "bar", Status: http.StatusConflict, Err: "conflict: Document update conflict."},
		},
	})
	tests.Add("new_edits in body", tt{
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"docs":[{"_id":"foo","_rev":"1-abc"}],"new_edits":false}` {
				t.Errorf("unexpected body: %s", string(body))
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[]`))
		}),
		docs: []interface{}{
			map[string]string{"_id": "foo", "_rev": "1-abc"},
		},
		options: map[string]interface{}{"new_edits": false},
	})
	tests.Add("request failure", tt{
		handler: jsonHandler(http.StatusBadRequest, `{"error":"bad_request","reason":"invalid UTF-8 JSON"}`),
		docs:    []interface{}{map[string]string{"_id": "foo"}},
		status:  http.StatusBadRequest,
		err:     "bad_request: invalid UTF-8 JSON",
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		db := newTestDB(t, tt.handler)
		results, err := db.BulkDocs(context.Background(), tt.docs, tt.options)
		testy.StatusError(t, tt.err, tt.status, err)
		var got []result
		for {
			var r driver.BulkResult
			if err := results.Next(&r); err != nil {
				if err != io.EOF {
					t.Fatal(err)
				}
				break
			}
			res := result{ID: r.ID, Rev: r.Rev}
			if r.Error != nil {
				res.Status = kivik.StatusCode(r.Error)
				res.Err = r.Error.Error()
			}
			got = append(got, res)
		}
		if d := testy.DiffInterface(tt.expected, got); d != nil {
			t.Error(d)
		}
		if err := results.Close(); err != nil {
			t.Fatal(err)
		}
	})
}
