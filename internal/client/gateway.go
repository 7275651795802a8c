package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestError is returned for every non-2xx response.
type RequestError struct {
	Status   int
	Message  string
	Endpoint string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// Call describes one request.  Anonymous calls carry no token and never
// trigger the unauthorized hook.
type Call struct {
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Anonymous bool
}

func (c Call) endpoint() string { return c.Method + " " + c.Path }

// Gateway is the single path every API request takes.  Each call is one
// attempt: there is no retry, backoff or caching.
type Gateway struct {
	BaseURL string
	HTTP    *http.Client

	// Token returns the bearer token to attach, or "".
	Token func() string
	// OnUnauthorized runs with the token that was rejected, before Do
	// returns the 401 error.
	OnUnauthorized func(token string)
}

// NewGateway returns a gateway for baseURL, e.g. http://localhost:8001/api.
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// URL resolves path and query against the base URL.
func (g *Gateway) URL(path string, q url.Values) string {
	u := g.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (g *Gateway) token() string {
	if g.Token == nil {
		return ""
	}
	return g.Token()
}

// Do performs c and decodes a successful JSON body into out (when non-nil).
func (g *Gateway) Do(ctx context.Context, c Call, out any) error {
	var body io.Reader
	if c.Body != nil {
		raw, err := json.Marshal(c.Body)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", c.endpoint(), err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, c.Method, g.URL(c.Path, c.Query), body)
	if err != nil {
		return fmt.Errorf("%s: %w", c.endpoint(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	tok := ""
	if !c.Anonymous {
		tok = g.token()
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	hc := g.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.endpoint(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RequestError{Status: resp.StatusCode, Endpoint: c.endpoint(), Message: errorMessage(resp.Body)}
		if re.Message == "" {
			re.Message = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized && !c.Anonymous && g.OnUnauthorized != nil {
			g.OnUnauthorized(tok)
		}
		return re
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode: %w", c.endpoint(), err)
	}
	return nil
}

// errorMessage pulls "error" or "detail" out of an error body.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Detail
}
