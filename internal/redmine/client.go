package redmine

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Per-operation timeouts. Reads are quick lookups; creation may trigger
// server-side workflow hooks and gets a longer bound.
const (
	readTimeout   = 10 * time.Second
	createTimeout = 30 * time.Second
)

// Client is a thin HTTP client for the Redmine REST API. It handles API-key
// authentication, JSON marshaling, and per-operation timeouts. The underlying
// *http.Client is a shared resource owned by the caller; the Client never
// closes it.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Redmine HTTP client. The baseURL must already be
// normalized (explicit scheme, no trailing slash); normalization happens
// once, at setup entry, and is never re-applied here. A nil httpClient
// falls back to DefaultHTTPClient.
func NewClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// DefaultHTTPClient returns a pooled HTTP client with TLS certificate
// verification disabled. Redmine is typically self-hosted behind a
// self-signed certificate, so the bridge accepts those certificates as an
// explicit default rather than failing the handshake.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			MaxIdleConns:    10,
			IdleConnTimeout: 90 * time.Second,
		},
	}
}

// BaseURL returns the normalized root URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes one authenticated request and returns the status code and raw
// response body. There are no retries; every failure is terminal for the
// operation. Transport-level failures come back as ConnectionError.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	timeout time.Duration,
) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Redmine-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &ConnectionError{
			Message: fmt.Sprintf("%s %s failed", method, path),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &ConnectionError{
			Message: fmt.Sprintf("reading response from %s %s", method, path),
			Err:     err,
		}
	}

	return resp.StatusCode, respBody, nil
}

// getJSON performs a read call and decodes the 2xx response into result.
// A 401 maps to AuthError; any other non-2xx maps to ConnectionError.
func (c *Client) getJSON(ctx context.Context, path string, result interface{}) error {
	status, body, err := c.do(ctx, http.MethodGet, path, nil, readTimeout)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusUnauthorized:
		return &AuthError{Message: "invalid API key"}
	case status < 200 || status >= 300:
		return &ConnectionError{
			Message: fmt.Sprintf("unexpected status %d on GET %s", status, path),
		}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &ConnectionError{
			Message: fmt.Sprintf("decoding response from GET %s", path),
			Err:     err,
		}
	}

	return nil
}
