// Package proxy adapts an Apps Script calendar proxy into unified events.
// The proxy returns a flat JSON array of event objects; no authentication
// beyond the (secret) deployment URL is involved.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"studycal/internal/classify"
	appLog "studycal/internal/log"
	"studycal/internal/model"
)

// Client fetches events from one proxy deployment.
type Client struct {
	httpClient *http.Client
	url        string
	loc        *time.Location
}

// New creates a proxy client for the given deployment URL.
func New(url string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        url,
		loc:        loc,
	}
}

// proxyEvent is the wire shape the Apps Script deployment emits.
type proxyEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Start       string `json:"start"` // RFC 3339, or bare date for all-day
	End         string `json:"end"`
	Location    string `json:"location"`
	Link        string `json:"link"`
	Color       string `json:"color"`
}

// FetchEvents downloads and adapts the proxy's event list. Events without a
// parseable start are logged and skipped; Canvas-like items are promoted to
// feed assignments the same way the Google adapter does.
func (c *Client) FetchEvents(ctx context.Context) ([]model.Event, error) {
	if c.url == "" {
		return nil, errors.New("proxy URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxy fetch: %s", resp.Status)
	}

	var items []proxyEvent
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("proxy decode: %w", err)
	}

	out := make([]model.Event, 0, len(items))
	for _, item := range items {
		ev, ok := c.adapt(item)
		if !ok {
			appLog.Debug("proxy: skipping event without start", "id", item.ID, "title", item.Title)
			continue
		}
		out = append(out, ev)
	}

	appLog.Info("proxy fetch completed", "event_count", len(out))
	return out, nil
}

func (c *Client) adapt(item proxyEvent) (model.Event, bool) {
	title := item.Title
	if title == "" {
		title = model.PlaceholderTitle
	}

	var dateKey, startClock, endClock string
	if start, err := time.Parse(time.RFC3339, item.Start); err == nil {
		dateKey = model.DateKeyOf(start, c.loc)
		startClock = model.ClockOf(start, c.loc)
		if end, eerr := time.Parse(time.RFC3339, item.End); eerr == nil {
			endClock = model.ClockOf(end, c.loc)
		}
	} else if _, derr := time.Parse(model.DateKeyLayout, item.Start); derr == nil {
		// All-day events arrive as a bare date.
		dateKey = item.Start
	} else {
		return model.Event{}, false
	}

	category, color := classify.Classify(title, item.Description)
	source := model.SourceProxy
	if classify.CanvasLike(title, item.Description, item.Color) {
		source = model.SourceFeed
	}

	id := item.ID
	if id == "" {
		id = model.FallbackID(source, title, dateKey, startClock)
	}

	return model.Event{
		ID:          id,
		Title:       title,
		Description: item.Description,
		StartTime:   startClock,
		EndTime:     endClock,
		DateKey:     dateKey,
		Source:      source,
		Category:    category,
		Color:       color,
		Location:    item.Location,
		Link:        item.Link,
	}, true
}
