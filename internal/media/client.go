// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Client is the REST adapter over the media server's enriched catalog
// API. It implements Source. Wrap it in a GuardedSource before handing it
// to jobs.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Source = (*Client)(nil)

// NewClient creates a media-server API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListItems implements Source.
func (c *Client) ListItems(ctx context.Context, libraryIDs []string, f Filters) ([]Item, error) {
	q := url.Values{}
	for _, id := range libraryIDs {
		q.Add("library", id)
	}
	for _, k := range f.Kinds {
		q.Add("kind", string(k))
	}
	if f.MinDurationSec > 0 {
		q.Set("min_duration_sec", fmt.Sprint(f.MinDurationSec))
	}
	if f.MaxDurationSec > 0 {
		q.Set("max_duration_sec", fmt.Sprint(f.MaxDurationSec))
	}

	endpoint := "/api/items"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("media items request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("media items", resp)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode media items: %w", err)
	}
	return items, nil
}

// GetItem implements Source.
func (c *Client) GetItem(ctx context.Context, id string) (*Item, error) {
	resp, err := c.doRequest(ctx, "/api/items/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("media item request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("media item", resp)
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decode media item: %w", err)
	}
	return &item, nil
}

// Ping tests connectivity to the media server.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "/api/ping")
	if err != nil {
		return fmt.Errorf("media ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("media ping", resp)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.httpClient.Do(req)
}

func statusError(op string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("%s returned status %d", op, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", op, resp.StatusCode, string(body))
}
