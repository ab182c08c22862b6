package couchdb

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-kivik/kivik/v3/driver"

	"github.com/go-kivik/couchdb/v3/chttp"
)

// PutAttachment uploads an attachment to a document.
func (d *db) PutAttachment(ctx context.Context, docID, rev string, att *driver.Attachment, opts map[string]interface{}) (string, error) {
	if docID == "" {
		return "", missingArg("docID")
	}
	if att == nil || att.Filename == "" {
		return "", missingArg("att.Filename")
	}
	if att.Content == nil {
		return "", missingArg("att.Content")
	}
	fc, err := fullCommit(opts)
	if err != nil {
		return "", err
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return "", err
	}
	if rev != "" {
		query.Set("rev", rev)
	}
	options := &chttp.Options{
		Body:        att.Content,
		ContentType: att.ContentType,
		Query:       query,
		FullCommit:  fc,
	}
	var result struct {
		Rev string `json:"rev"`
	}
	path := d.path(chttp.EncodeDocID(docID), url.PathEscape(att.Filename))
	if _, err := d.DoJSON(ctx, http.MethodPut, path, options, &result); err != nil {
		return "", err
	}
	return result.Rev, nil
}

// GetAttachment fetches an attachment. The returned attachment's Content
// streams directly from the HTTP response and must be closed.
func (d *db) GetAttachment(ctx context.Context, docID, filename string, opts map[string]interface{}) (*driver.Attachment, error) {
	if docID == "" {
		return nil, missingArg("docID")
	}
	if filename == "" {
		return nil, missingArg("filename")
	}
	inm, err := ifNoneMatch(opts)
	if err != nil {
		return nil, err
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return nil, err
	}
	options := &chttp.Options{
		Query:       query,
		IfNoneMatch: inm,
		Accept:      "*/*",
	}
	path := d.path(chttp.EncodeDocID(docID), url.PathEscape(filename))
	resp, err := d.DoReq(ctx, http.MethodGet, path, options)
	if err != nil {
		return nil, err
	}
	att := attachmentFromHeaders(filename, resp)
	att.Content = resp.Body
	return att, nil
}

var _ driver.AttachmentMetaGetter = &db{}

// GetAttachmentMeta returns attachment metadata from a HEAD request. The
// returned attachment is a stub with no content.
func (d *db) GetAttachmentMeta(ctx context.Context, docID, filename string, opts map[string]interface{}) (*driver.Attachment, error) {
	if docID == "" {
		return nil, missingArg("docID")
	}
	if filename == "" {
		return nil, missingArg("filename")
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return nil, err
	}
	path := d.path(chttp.EncodeDocID(docID), url.PathEscape(filename))
	resp, err := d.Head(ctx, path, &chttp.Options{Query: query, Accept: "*/*"})
	if err != nil {
		return nil, err
	}
	att := attachmentFromHeaders(filename, resp)
	att.Stub = true
	att.Content = io.NopCloser(strings.NewReader(""))
	return att, nil
}

func attachmentFromHeaders(filename string, resp *chttp.Response) *driver.Attachment {
	att := &driver.Attachment{
		Filename:        filename,
		ContentType:     resp.Header.Get("Content-Type"),
		ContentEncoding: resp.Header.Get("Content-Encoding"),
		Digest:          strings.TrimPrefix(resp.Header.Get("Content-MD5"), "md5-"),
	}
	if size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		att.Size = size
	}
	return att
}

// DeleteAttachment removes an attachment from a document.
func (d *db) DeleteAttachment(ctx context.Context, docID, rev, filename string, opts map[string]interface{}) (string, error) {
	if docID == "" {
		return "", missingArg("docID")
	}
	if rev == "" {
		return "", missingArg("rev")
	}
	if filename == "" {
		return "", missingArg("filename")
	}
	fc, err := fullCommit(opts)
	if err != nil {
		return "", err
	}
	query, err := optionsToParams(opts)
	if err != nil {
		return "", err
	}
	query.Set("rev", rev)
	options := &chttp.Options{
		Query:      query,
		FullCommit: fc,
	}
	var result struct {
		Rev string `json:"rev"`
	}
	path := d.path(chttp.EncodeDocID(docID), url.PathEscape(filename))
	if _, err := d.DoJSON(ctx, http.MethodDelete, path, options, &result); err != nil {
		return "", err
	}
	return result.Rev, nil
}
