// Package fetch provides the HTTP transport shared by every provider adapter:
// bounded timeouts, JSON encoding and a uniform error taxonomy.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout applies to ordinary reads and writes.
const DefaultTimeout = 15 * time.Second

// ImageTimeout applies to image generation and editing calls.
const ImageTimeout = 90 * time.Second

// MaxResponseBytes bounds any response body read into memory, images included.
const MaxResponseBytes = 32 << 20

// DefaultUserAgent is the user agent string for adapter requests.
const DefaultUserAgent = "pin-pipeline/1.0"

// Client performs adapter requests with a fixed timeout. Timeouts are
// reported as KindTimeout and never retried here.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
}

// NewClient creates a Client with the given timeout. Zero means DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  DefaultUserAgent,
		maxBody:    MaxResponseBytes,
	}
}

// HTTPClient exposes the underlying client, e.g. for oauth2 token exchanges.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Request describes one adapter call. JSON is marshaled as the body when set;
// otherwise Body is sent as-is with ContentType.
type Request struct {
	Method      string
	URL         string
	Query       url.Values
	Headers     map[string]string
	JSON        any
	Body        []byte
	ContentType string
}

// Response holds a successful (2xx) response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do executes the request. Non-2xx responses return a KindStatus error that
// carries the status code and a body snippet.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: stripQuery(req.URL), Kind: KindTransport, Message: "invalid URL"}
	}
	target := redactURL(parsed)
	if len(req.Query) > 0 {
		q := parsed.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		parsed.RawQuery = q.Encode()
	}

	var body io.Reader
	contentType := req.ContentType
	if req.JSON != nil {
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, &Error{URL: target, Kind: KindTransport, Message: "failed to encode request", Cause: err}
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	} else if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, parsed.String(), body)
	if err != nil {
		return nil, &Error{URL: target, Kind: KindTransport, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// *url.Error prints the full request URL, query keys included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = target
		}
		if isTimeout(err) {
			return nil, &Error{URL: target, Kind: KindTimeout, Message: "request timed out", Cause: err}
		}
		return nil, &Error{URL: target, Kind: KindTransport, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{URL: target, Kind: KindTimeout, Message: "reading response timed out", Cause: err}
		}
		return nil, &Error{URL: target, Kind: KindTransport, Message: "failed to read response body", Cause: err}
	}
	if int64(len(respBody)) > c.maxBody {
		return nil, &Error{URL: target, Kind: KindTransport, Message: fmt.Sprintf("response exceeds %d bytes", c.maxBody)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			URL:        target,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Body:       snippet(respBody),
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// JSON executes the request and decodes the response into out. A body that
// does not decode is a KindSchema error.
func (c *Client) JSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return NewSchemaError(stripQuery(req.URL), "response does not match the expected shape", err)
	}
	return nil
}

// Bytes downloads a resource and returns its body and content type.
func (c *Client) Bytes(ctx context.Context, rawURL string) ([]byte, string, error) {
	resp, err := c.Do(ctx, Request{URL: rawURL, Headers: map[string]string{"Accept": "*/*"}})
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// redactURL drops the query string and userinfo, which may carry API keys.
func redactURL(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""
	clean.ForceQuery = false
	clean.User = nil
	clean.Fragment = ""
	return clean.String()
}

func stripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if u, err := url.Parse(raw); err == nil && u.User != nil {
		u.User = nil
		return u.String()
	}
	return raw
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// HTMLToText returns whitespace-normalized visible text from an HTML fragment.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	// block elements would otherwise run together
	doc.Find("p, div, li, br, h1, h2, h3, h4, h5, h6, td").AppendHtml(" ")
	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}
