// Package lineage provides the Go client for the lineage traversal service.
package lineage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the lineage service client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientConfig configures the client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new lineage client.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    config.BaseURL,
	}
}

// Traverse runs a traversal request against the service.
func (c *Client) Traverse(ctx context.Context, req TraverseRequest) (*TraverseResponse, error) {
	var resp TraverseResponse
	if err := c.post(ctx, "/api/v1/traverse", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetNode fetches a single node summary by id.
func (c *Client) GetNode(ctx context.Context, id string) (*Node, error) {
	var node Node
	if err := c.get(ctx, "/api/v1/nodes/"+id, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// Health checks service liveness.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.get(ctx, "/health", &out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("lineage: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lineage: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("lineage: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr Error
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
			apiErr.Status = resp.StatusCode
			return &apiErr
		}
		return fmt.Errorf("lineage: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	return json.Unmarshal(data, out)
}

// Error is a service error response.
type Error struct {
	Message string `json:"error"`
	Kind    string `json:"kind"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("lineage: %s (%s, status %d)", e.Message, e.Kind, e.Status)
}
