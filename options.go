package couchdb

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-kivik/kivik/v3"
	"github.com/goccy/go-json"
)

// optionsToParams converts a kivik options map to URL query parameters.
// Values of type bool, string, []string, and the integer families are
// converted to their string representations; anything else is an error.
func optionsToParams(opts ...map[string]interface{}) (url.Values, error) {
	params := url.Values{}
	for _, optsSet := range opts {
		for key, i := range optsSet {
			var values []string
			switch v := i.(type) {
			case string:
				values = []string{v}
			case []string:
				values = v
			case bool:
				values = []string{strconv.FormatBool(v)}
			case int, uint, uint8, uint16, uint32, uint64, int8, int16, int32, int64:
				values = []string{fmt.Sprintf("%d", v)}
			default:
				return nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: fmt.Sprintf("kivik: invalid type %T for options", i)}
			}
			for _, value := range values {
				params.Add(key, value)
			}
		}
	}
	return params, nil
}

// The view query parameters that CouchDB expects to be JSON-encoded.
var jsonKeys = map[string]struct{}{
	"key":       {},
	"keys":      {},
	"startkey":  {},
	"start_key": {},
	"endkey":    {},
	"end_key":   {},
}

// viewQuery converts view options to query parameters, JSON-encoding the
// key-range parameters. The keys entry is removed and returned separately,
// as it must be sent in a POST body.
func viewQuery(opts map[string]interface{}) (url.Values, interface{}, error) {
	params := url.Values{}
	var keys interface{}
	rest := make(map[string]interface{}, len(opts))
	for key, value := range opts {
		if _, ok := jsonKeys[key]; !ok {
			rest[key] = value
			continue
		}
		if key == "keys" {
			keys = value
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Err: err}
		}
		params.Set(key, string(encoded))
	}
	extra, err := optionsToParams(rest)
	if err != nil {
		return nil, nil, err
	}
	for key, values := range extra {
		for _, v := range values {
			params.Add(key, v)
		}
	}
	return params, keys, nil
}

// fullCommit consumes the OptionFullCommit key from opts, if present.
func fullCommit(opts map[string]interface{}) (bool, error) {
	fc, ok := opts[OptionFullCommit]
	if !ok {
		return false, nil
	}
	fcBool, ok := fc.(bool)
	if !ok {
		return false, &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: fmt.Sprintf("kivik: option '%s' must be bool, not %T", OptionFullCommit, fc)}
	}
	delete(opts, OptionFullCommit)
	return fcBool, nil
}

// ifNoneMatch consumes the OptionIfNoneMatch key from opts, if present.
func ifNoneMatch(opts map[string]interface{}) (string, error) {
	inm, ok := opts[OptionIfNoneMatch]
	if !ok {
		return "", nil
	}
	inmString, ok := inm.(string)
	if !ok {
		return "", &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: fmt.Sprintf("kivik: option '%s' must be string, not %T", OptionIfNoneMatch, inm)}
	}
	delete(opts, OptionIfNoneMatch)
	return inmString, nil
}

func encodeDBName(dbName string) string {
	return url.PathEscape(dbName)
}
