// Package httpjson is the JSON-over-HTTP plumbing shared by the model
// backends that speak REST (Ollama, OpenAI-compatible servers, Anthropic).
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// maxErrorBody caps how much of an error response ends up in a message.
const maxErrorBody = 512

// Client sends JSON requests to one backend.
type Client struct {
	// Backend names the service in errors, e.g. "ollama" or "groq".
	Backend string
	BaseURL string
	// Header is added to every request; use it for credentials.
	Header http.Header
	HTTP   *http.Client
}

// New returns a Client with its own http.Client bounded by timeout.
func New(backend, baseURL string, timeout time.Duration, header http.Header) *Client {
	return &Client{
		Backend: backend,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Header:  header,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Post sends in as JSON to path and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.Backend, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

// Get fetches path and decodes the response into out, which may be nil
// when only the status matters.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, http.NoBody, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.Backend, err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		// Transport errors keep their chain so timeouts stay detectable.
		return fmt.Errorf("%s %s: %w", c.Backend, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", c.Backend, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Backend:    c.Backend,
			Status:     resp.StatusCode,
			Message:    errorMessage(data),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	if out == nil || (method == http.MethodGet && len(bytes.TrimSpace(data)) == 0) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", domain.ErrModelUnavailable, c.Backend, err)
	}
	return nil
}

// StatusError is a non-2xx answer from a backend. It matches
// domain.ErrModelUnavailable under errors.Is.
type StatusError struct {
	Backend    string
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s error (status %d)", e.Backend, e.Status)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Backend, e.Status, e.Message)
}

func (e *StatusError) Unwrap() error { return domain.ErrModelUnavailable }

// Retryable reports whether repeating the request could succeed: the
// backend was throttling, timed out or failed on its side. Bad requests
// and rejected credentials are permanent.
func (e *StatusError) Retryable() bool {
	switch {
	case e.Status == http.StatusTooManyRequests, e.Status == http.StatusRequestTimeout:
		return true
	case e.Status >= 500:
		return true
	}
	return false
}

// RetryDelay is how long the backend asked callers to wait, or zero.
func (e *StatusError) RetryDelay() time.Duration { return e.RetryAfter }

// errorMessage pulls the human-readable part out of the error shapes the
// supported backends use:
//
//	{"error": "model not found"}                      Ollama
//	{"error": {"message": "invalid api key", ...}}    OpenAI, Groq, Anthropic
//	{"message": "..."}                                assorted proxies
//
// Anything else is returned as trimmed text.
func errorMessage(body []byte) string {
	var shape struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &shape) == nil {
		var s string
		if json.Unmarshal(shape.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(shape.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
		if shape.Message != "" {
			return shape.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

// retryAfter parses a Retry-After header given either as seconds or as
// an HTTP date.
func retryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
