package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

// Error is a decoded transport failure.
type Error struct {
	Status   int
	Message  string
	Redirect string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("transport")
	if e.Status > 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status, or 0 when no response was received.
func (e *Error) StatusCode() int { return e.Status }

// Timeout reports whether the request was cut by a deadline.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

const maxScrapedMessage = 200

// DecodeError turns a failed exchange into a human readable error. Decoders
// run in order: redirect, XML envelope, JSON envelope, HTML error page, and a
// generic fallback built from the status line.
func DecodeError(resp *Response, err error) *Error {
	var te *Error
	if errors.As(err, &te) && resp == nil {
		return te
	}
	out := &Error{Err: err}
	if resp == nil {
		out.Message = "network error"
		if err == nil {
			out.Message = "no response"
		}
		return out
	}
	out.Status = resp.Status

	if resp.Location != "" {
		out.Redirect = resp.Location
		out.Message = "redirected to " + resp.Location
		return out
	}
	if env, envErr := resp.Envelope(); envErr == nil && env.Message != "" {
		out.Message = env.Message
		return out
	}
	if msg := scrapeHTML(resp.Body); msg != "" {
		out.Message = msg
		return out
	}
	out.Message = strings.TrimSpace(fmt.Sprintf("%d %s", resp.Status, http.StatusText(resp.Status)))
	return out
}

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

func textPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// scrapeHTML extracts a message from an HTML error page: the first heading,
// then the title, then the visible body text.
func scrapeHTML(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return ""
	}
	doc, err := html.Parse(bytes.NewReader(trimmed))
	if err != nil {
		return ""
	}
	for _, tag := range []string{"h1", "title", "h2"} {
		if n := dom.First(doc, dom.Tag(tag)); n != nil {
			if text := collapse(dom.Text(n)); text != "" {
				return clip(text)
			}
		}
	}
	b := dom.Body(doc)
	if b == nil {
		return ""
	}
	for _, tag := range []string{"script", "style"} {
		for _, n := range dom.Find(b, dom.Tag(tag)) {
			dom.Detach(n)
		}
	}
	text := html.UnescapeString(textPolicy().Sanitize(dom.InnerHTML(b)))
	return clip(collapse(text))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxScrapedMessage {
		return s
	}
	return string(r[:maxScrapedMessage]) + "…"
}
