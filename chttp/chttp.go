// Package chttp provides a minimal HTTP driver backend for communicating
// with CouchDB servers. It handles DSN parsing, authentication, request
// construction, and translation of CouchDB error bodies into errors that
// embed the HTTP status code.
package chttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-kivik/kivik/v3"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Default connection settings.
const (
	DefaultTimeout   = 30 * time.Second
	typeJSON         = "application/json"
	userAgentComment = "kivik couchdb driver"
)

// Client is a CouchDB HTTP client. All methods are safe for concurrent use,
// holding no state other than the base URL and any session cookies.
type Client struct {
	rc  *resty.Client
	dsn *url.URL
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the request timeout. The zero value means no timeout;
// cancellation is then driven entirely by the request context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.rc.SetTimeout(d)
	}
}

// WithLogger enables debug logging of requests and responses through the
// provided zap logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.rc.SetLogger(logger)
		c.rc.SetDebug(true)
	}
}

// WithUserAgent appends an additional User-Agent fragment.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.rc.SetHeader("User-Agent", ua+" "+userAgentComment)
	}
}

// New returns a connection to a remote CouchDB server. If credentials are
// included in the DSN, they are stripped from the stored URL and used for
// HTTP Basic authentication on every request.
func New(dsn string, options ...Option) (*Client, error) {
	addr, err := url.Parse(dsn)
	if err != nil {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Err: err}
	}
	if addr.Scheme != "http" && addr.Scheme != "https" {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: fmt.Sprintf("unsupported URL scheme %q", addr.Scheme)}
	}
	if addr.Host == "" {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: "no host specified in DSN"}
	}
	user := addr.User
	addr.User = nil
	addr.Path = strings.TrimSuffix(addr.Path, "/")

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	rc := resty.New().
		SetCookieJar(jar).
		SetTimeout(DefaultTimeout).
		SetHeader("User-Agent", userAgentComment)

	c := &Client{
		rc:  rc,
		dsn: addr,
	}
	if user != nil {
		pass, _ := user.Password()
		c.SetBasicAuth(user.Username(), pass)
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// URL returns the base URL of the server, without credentials.
func (c *Client) URL() string {
	return c.dsn.String()
}

// DSN returns a copy of the parsed base URL.
func (c *Client) DSN() *url.URL {
	dsn := *c.dsn
	return &dsn
}

// SetBasicAuth enables HTTP Basic authentication for all future requests.
func (c *Client) SetBasicAuth(username, password string) {
	c.rc.SetBasicAuth(username, password)
}

// Options control a single request.
type Options struct {
	// Accept sets the Accept header. Defaults to application/json.
	Accept string

	// ContentType sets the Content-Type header when a body is sent.
	// Defaults to application/json.
	ContentType string

	// Body is sent as the raw request body.
	Body io.Reader

	// JSON, if non-nil, is marshaled and sent as the request body. Body
	// takes precedence.
	JSON interface{}

	// Query is appended to the request URL.
	Query url.Values

	// Header entries are added to the request.
	Header http.Header

	// FullCommit sets the X-Couch-Full-Commit header.
	FullCommit bool

	// IfNoneMatch sets the If-None-Match header.
	IfNoneMatch string

	// Destination sets the Destination header, used by the COPY method.
	Destination string
}

// Response represents a response from a CouchDB server. The caller is
// responsible for closing Body.
type Response struct {
	StatusCode    int
	Header        http.Header
	ContentLength int64
	Body          io.ReadCloser
}

// Close discards and closes the response body.
func (r *Response) Close() error {
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 1024))
	return r.Body.Close()
}

// Rev returns the document revision from the ETag header.
func (r *Response) Rev() (string, error) {
	etag := r.Header.Get("ETag")
	if etag == "" {
		return "", &kivik.Error{HTTPStatus: http.StatusBadGateway, Message: "no ETag header found"}
	}
	return strings.Trim(etag, `"`), nil
}

// DoReq performs an HTTP request against the server. The response body is
// returned unread; any status >= 400 is converted to an error and the body
// is consumed.
func (c *Client) DoReq(ctx context.Context, method, path string, opts *Options) (*Response, error) {
	if method == "" {
		return nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Message: "no method specified"}
	}
	if opts == nil {
		opts = &Options{}
	}
	req := c.rc.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", nonEmpty(opts.Accept, typeJSON))
	if len(opts.Query) > 0 {
		req.SetQueryParamsFromValues(opts.Query)
	}
	for k, vals := range opts.Header {
		for _, v := range vals {
			req.SetHeader(k, v)
		}
	}
	if opts.FullCommit {
		req.SetHeader("X-Couch-Full-Commit", "true")
	}
	if opts.IfNoneMatch != "" {
		req.SetHeader("If-None-Match", ifNoneMatch(opts.IfNoneMatch))
	}
	if opts.Destination != "" {
		req.SetHeader("Destination", opts.Destination)
	}
	switch {
	case opts.Body != nil:
		req.SetHeader("Content-Type", nonEmpty(opts.ContentType, typeJSON))
		req.SetBody(opts.Body)
	case opts.JSON != nil:
		body, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, &kivik.Error{HTTPStatus: http.StatusBadRequest, Err: err}
		}
		req.SetHeader("Content-Type", typeJSON)
		req.SetBody(body)
	}

	resp, err := req.Execute(method, c.pathURL(path))
	if err != nil {
		return nil, netError(err)
	}
	response := &Response{
		StatusCode:    resp.StatusCode(),
		Header:        resp.Header(),
		ContentLength: resp.RawResponse.ContentLength,
		Body:          resp.RawBody(),
	}
	if response.StatusCode >= 400 {
		return response, ResponseError(response)
	}
	return response, nil
}

// DoJSON performs a request and decodes a JSON response body into dst. The
// response body is always consumed and closed. A nil dst discards the body.
func (c *Client) DoJSON(ctx context.Context, method, path string, opts *Options, dst interface{}) (*Response, error) {
	resp, err := c.DoReq(ctx, method, path, opts)
	if err != nil {
		return resp, err
	}
	defer resp.Close() // nolint: errcheck
	if dst == nil {
		return resp, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp, &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
	}
	return resp, nil
}

// Head performs a HEAD request, returning the response with a closed body.
func (c *Client) Head(ctx context.Context, path string, opts *Options) (*Response, error) {
	resp, err := c.DoReq(ctx, http.MethodHead, path, opts)
	if resp != nil {
		_ = resp.Close()
	}
	return resp, err
}

func (c *Client) pathURL(path string) string {
	return c.dsn.String() + "/" + strings.TrimPrefix(path, "/")
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func ifNoneMatch(rev string) string {
	if strings.HasPrefix(rev, `"`) {
		return rev
	}
	return `"` + rev + `"`
}

// netError converts a transport-level failure. Context cancellation maps
// to 499, timeouts to 503, everything else to 502. The HTTP client wraps
// context errors in a *url.Error, so they are checked by unwrapping first.
func netError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return &kivik.Error{HTTPStatus: 499, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &kivik.Error{HTTPStatus: http.StatusServiceUnavailable, Err: err}
	}
	if urlErr, ok := unwrapURLError(err); ok {
		status := http.StatusBadGateway
		if urlErr.Timeout() {
			status = http.StatusServiceUnavailable
		}
		return &kivik.Error{HTTPStatus: status, Err: err}
	}
	return &kivik.Error{HTTPStatus: http.StatusBadGateway, Err: err}
}

func unwrapURLError(err error) (*url.Error, bool) {
	for err != nil {
		if urlErr, ok := err.(*url.Error); ok {
			return urlErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// EncodeDocID encodes a document ID for use in a URL path, preserving the
// slash separator after the reserved _design/ and _local/ prefixes.
func EncodeDocID(docID string) string {
	for _, prefix := range []string{"_design/", "_local/"} {
		if strings.HasPrefix(docID, prefix) {
			return prefix + url.PathEscape(strings.TrimPrefix(docID, prefix))
		}
	}
	return url.PathEscape(docID)
}
