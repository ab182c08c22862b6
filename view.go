package couchdb

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-kivik/kivik/v3/driver"
)

// Query queries a view. The ddoc parameter accepts the design document name
// with or without the _design/ prefix. The view parameter is normally the
// bare view name (a leading _view/ prefix is also accepted); a view of the
// form "_list/{list}/{view}" instead queries the named list function, whose
// output must be a standard JSON row container to be iterated.
func (d *db) Query(ctx context.Context, ddoc, view string, opts map[string]interface{}) (driver.Rows, error) {
	if ddoc == "" {
		return nil, missingArg("ddoc")
	}
	if view == "" {
		return nil, missingArg("view")
	}
	path := d.path("_design", url.PathEscape(strings.TrimPrefix(ddoc, "_design/")))
	if list, ok := listRef(view); ok {
		path += "/_list/" + list
	} else {
		path += "/_view/" + url.PathEscape(strings.TrimPrefix(view, "_view/"))
	}
	return d.rowsQuery(ctx, path, opts)
}

// listRef reports whether view names a list function, returning the
// "{list}/{view}" remainder if so.
func listRef(view string) (string, bool) {
	rest := strings.TrimPrefix(view, "_list/")
	if rest == view {
		return "", false
	}
	if !strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
