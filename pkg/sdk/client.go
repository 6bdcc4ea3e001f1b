package sdk

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

// Client talks to one json-server instance.
type Client struct {
	base    *url.URL
	http    *http.Client
	headers http.Header
	inst    *instruments
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{headers: http.Header{}}
	for _, o := range opts {
		o.apply(cfg)
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("sdk: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("sdk: base url %q must be http or https", baseURL)
	}

	inst, err := newInstruments(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: base, http: hc, headers: cfg.headers, inst: inst}, nil
}

// Resource returns the client for one resource.
func (c *Client) Resource(name string) *ResourceClient {
	return &ResourceClient{name: name, c: c}
}

// Dump returns the whole database.
func (c *Client) Dump(ctx context.Context) (map[string][]Record, error) {
	var out map[string][]Record
	err := c.run("dump", "", func() error {
		_, err := c.do(ctx, http.MethodGet, []string{"db"}, nil, nil, &out)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}
	return out, nil
}

// run times one operation and reports it to the configured logger and
// metrics.
func (c *Client) run(op, resource string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.inst.record(op, resource, time.Since(start), err)
	return err
}

// errorBody mirrors the server's error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends one request. A nil out skips decoding. Non-2xx responses become *APIError.
func (c *Client) do(
	ctx context.Context, method string, segments []string, query url.Values, in, out any,
) (http.Header, error) {
	u := *c.base
	for _, s := range segments {
		u.Path += "/" + url.PathEscape(s)
	}
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Body: data}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Code, apiErr.Message = eb.Code, eb.Message
		}
		return resp.Header, apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnexpectedReply, err)
		}
	}
	return resp.Header, nil
}

// asStatus returns err as an APIError with the given status.
func asStatus(err error, status int) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == status {
		return apiErr, true
	}
	return nil, false
}
