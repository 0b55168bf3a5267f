// Package gcal adapts the Google Calendar API into unified events. OAuth
// token acquisition happens out of band; the adapter only consumes a stored
// token and refreshes it through the standard oauth2 client.
package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"studycal/internal/classify"
	"studycal/internal/config"
	appLog "studycal/internal/log"
	"studycal/internal/model"
)

// Client wraps a calendar.Service for the configured account.
type Client struct {
	svc *calendar.Service
	loc *time.Location
}

// New builds a Client from config. The token file must contain a
// JSON-serialized oauth2.Token with a refresh token.
func New(ctx context.Context, cfg *config.GoogleConfig, loc *time.Location) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("google source is not configured")
	}
	if loc == nil {
		loc = time.Local
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}

	data, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{svc: svc, loc: loc}, nil
}

// ListEvents pulls single-instance events from one calendar within the
// window and adapts them through the classifier. Items flagged Canvas-like
// (reserved color marker or assignment keywords) come back as feed
// assignments so they join the assignment views; everything else stays a
// plain calendar event.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]model.Event, error) {
	resp, err := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", calendarID, err)
	}

	out := make([]model.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		ev, ok := adapt(item, c.loc)
		if !ok {
			appLog.Debug("gcal: skipping event without start", "id", item.Id, "calendar", calendarID)
			continue
		}
		out = append(out, ev)
	}

	appLog.Info("gcal list completed", "calendar", calendarID, "event_count", len(out))
	return out, nil
}

// adapt maps one vendor event onto the unified model. Returns false when
// the item carries no usable start.
func adapt(item *calendar.Event, loc *time.Location) (model.Event, bool) {
	if item.Start == nil {
		return model.Event{}, false
	}

	title := item.Summary
	if title == "" {
		title = model.PlaceholderTitle
	}

	var dateKey, startClock, endClock string
	if item.Start.Date != "" {
		// All-day: the vendor already supplies the calendar date.
		dateKey = item.Start.Date
	} else {
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return model.Event{}, false
		}
		dateKey = model.DateKeyOf(start, loc)
		startClock = model.ClockOf(start, loc)
		if item.End != nil && item.End.DateTime != "" {
			if end, eerr := time.Parse(time.RFC3339, item.End.DateTime); eerr == nil {
				endClock = model.ClockOf(end, loc)
			}
		}
	}

	category, color := classify.Classify(title, item.Description)
	source := model.SourceCalendar
	if classify.CanvasLike(title, item.Description, item.ColorId) {
		source = model.SourceFeed
	}

	id := item.Id
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
		Link:        item.HtmlLink,
	}, true
}
