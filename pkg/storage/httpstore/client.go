// Package httpstore reads and writes layouts through a remote persistence API.
//
// The remote contract is GET, PUT and DELETE on {base}/{client}/{page}. GET
// answers 404 when nothing is stored and otherwise returns a layout_config
// document, optionally wrapped as {"layoutConfig": ..., "gridDensity": ...}.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-gridlayout/components/layout"
)

// Config configures the HTTP repository.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client implements layout.Repository over REST.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ layout.Repository = (*Client)(nil)

// NewClient validates cfg and applies a 10s default timeout.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpstore: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

type layoutEnvelope struct {
	LayoutConfig json.RawMessage    `json:"layoutConfig"`
	GridDensity  layout.GridDensity `json:"gridDensity,omitempty"`
}

func (c *Client) FetchLayout(ctx context.Context, key layout.PageKey) (*layout.PageLayoutConfig, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	body, status, err := c.do(ctx, http.MethodGet, c.path(key), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var env layoutEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.LayoutConfig) > 0 {
		return layout.DecodeStoredLayout(env.LayoutConfig, env.GridDensity)
	}
	return layout.DecodeStoredLayout(body, layout.DensityNormal)
}

func (c *Client) SaveLayout(ctx context.Context, key layout.PageKey, cfg layout.PageLayoutConfig) error {
	if err := key.Validate(); err != nil {
		return err
	}
	doc, err := layout.MarshalStoredLayout(cfg)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(layoutEnvelope{
		LayoutConfig: doc,
		GridDensity:  layout.ParseGridDensity(string(cfg.GridDensity)),
	})
	if err != nil {
		return fmt.Errorf("httpstore: encode payload: %w", err)
	}
	_, status, err := c.do(ctx, http.MethodPut, c.path(key), payload)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("httpstore: save %s: endpoint not found", key)
	}
	return nil
}

func (c *Client) ResetLayout(ctx context.Context, key layout.PageKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	_, _, err := c.do(ctx, http.MethodDelete, c.path(key), nil)
	return err
}

func (c *Client) path(key layout.PageKey) string {
	return c.baseURL + "/" + url.PathEscape(key.ClientID) + "/" + url.PathEscape(key.PageID)
}

// do returns the body and status. 404 is not treated as an error so callers
// can map it to "no layout".
func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("httpstore: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("httpstore: http request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("httpstore: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, resp.StatusCode, nil
	}
	if resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("httpstore: remote error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, resp.StatusCode, nil
}
