// Package transport submits editor payloads and decodes server feedback:
// the success/error/forward envelope, the 202 confirmation protocol and the
// redirect convention.
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-axelforms/pkg/logging"
)

// ConfirmedParam is appended to the URL of a confirmed retry.
const ConfirmedParam = "_confirmed"

const defaultTimeout = 30 * time.Second

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient injects the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout bounds each request. Zero disables the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
		cl.timeoutSet = true
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithBaseURL resolves relative request URLs against base, the way a page
// resolves them against its own location.
func WithBaseURL(base string) Option {
	return func(cl *Client) {
		if u, err := url.Parse(strings.TrimSpace(base)); err == nil && u.IsAbs() {
			cl.base = u
		}
	}
}

// SetBaseURL replaces the base used for relative request URLs. Invalid or
// relative values are ignored.
func (c *Client) SetBaseURL(base string) {
	WithBaseURL(base)(c)
}

// Client issues requests on behalf of commands and bindings.
type Client struct {
	base       *url.URL
	http       *http.Client
	timeout    time.Duration
	timeoutSet bool
	logger     logging.Logger
}

// New constructs a Client.
func New(options ...Option) *Client {
	c := &Client{}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = &http.Client{
			// Redirects are feedback for the page, not something to follow.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if !c.timeoutSet {
		c.timeout = defaultTimeout
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	return c
}

// Request is one submission.
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
	Header      http.Header
	// Confirmed marks the second round-trip of the confirmation protocol.
	Confirmed bool
}

// Response is a fully read HTTP response.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	Location string
}

// Fetch GETs url and returns the body of a 2xx response. Other statuses are
// returned as *Error.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Submit(ctx, Request{Method: http.MethodGet, URL: rawURL})
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, DecodeError(resp, nil)
	}
	return resp.Body, nil
}

// Submit sends req and reads the whole response. The error is non-nil only
// when no response was received.
func (c *Client) Submit(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, errors.New("transport: url is required")
	}
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	target := c.absolute(req.URL)
	if req.Confirmed {
		target = WithConfirmed(target)
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, &Error{Message: "invalid request", Err: err}
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	c.logger.Debug("transport request", "method", method, "url", target, "bytes", len(req.Body))
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Message: "request failed", Err: err}
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Status: httpResp.StatusCode, Message: "read response", Err: err}
	}
	resp := &Response{
		Status:   httpResp.StatusCode,
		Header:   httpResp.Header,
		Body:     data,
		Location: httpResp.Header.Get("Location"),
	}
	c.logger.Debug("transport response", "url", target, "status", resp.Status, "outcome", Classify(resp).String())
	return resp, nil
}

func (c *Client) absolute(rawURL string) string {
	if c.base == nil {
		return rawURL
	}
	ref, err := url.Parse(rawURL)
	if err != nil || ref.IsAbs() {
		return rawURL
	}
	return c.base.ResolveReference(ref).String()
}

// WithConfirmed appends the confirmation flag to rawURL.
func WithConfirmed(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + ConfirmedParam + "=1"
	}
	q := u.Query()
	q.Set(ConfirmedParam, "1")
	u.RawQuery = q.Encode()
	return u.String()
}

// WithQuery appends name=value to rawURL.
func WithQuery(rawURL, name, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Add(name, value)
	u.RawQuery = q.Encode()
	return u.String()
}
