// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package playout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jmlagace/telecaster/internal/generator"
	"github.com/jmlagace/telecaster/internal/media"
)

// Client is the REST adapter over the playout service's channel API. It
// implements Sink. Wrap it in a GuardedSink before handing it to jobs.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Sink = (*Client)(nil)

// NewClient creates a playout API client.
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

// playlistEntry is the wire form of one scheduled slot.
type playlistEntry struct {
	ItemID string    `json:"item_id"`
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Block  string    `json:"block,omitempty"`
}

// Apply implements Sink by replacing the channel's playlist.
func (c *Client) Apply(ctx context.Context, channelID string, pl *generator.Playlist) error {
	entries := make([]playlistEntry, len(pl.Items))
	for i := range pl.Items {
		it := &pl.Items[i]
		entries[i] = playlistEntry{
			ItemID: it.Item.ID,
			Title:  it.Item.Title,
			Start:  it.Start,
			End:    it.End,
			Block:  it.BlockName,
		}
	}

	body, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal playlist: %w", err)
	}

	endpoint := "/api/channels/" + url.PathEscape(channelID) + "/playlist"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("playout apply failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError("playout apply", resp)
	}
	return nil
}

// Current implements Sink by fetching the channel's current lineup.
func (c *Client) Current(ctx context.Context, channelID string) ([]media.Item, error) {
	endpoint := "/api/channels/" + url.PathEscape(channelID) + "/lineup"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playout lineup request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("playout lineup", resp)
	}

	var items []media.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode playout lineup: %w", err)
	}
	return items, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func statusError(op string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("%s returned status %d", op, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", op, resp.StatusCode, string(body))
}
