package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "studycal/internal/log"
)

// ParseError reports a feed body that could not be decoded into any event
// blocks. Per-event problems inside an otherwise valid feed are logged and
// skipped instead.
type ParseError struct {
	SourceID string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed %s: %v", e.SourceID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParsedEvent is the normalized representation of a VEVENT before
// recurrence expansion.
type ParsedEvent struct {
	Source Source

	UID string

	Summary     string
	Description string
	Location    string
	URL         string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time

	// RecurrenceID marks an override instance: this VEVENT replaces the
	// occurrence of the same UID that starts at this instant.
	RecurrenceID *time.Time
}

// ParseFeed parses a single ICS payload into a list of ParsedEvent. The
// underlying library handles VTIMEZONE/TZID resolution; all-day events are
// detected from the DTSTART value format. A VEVENT without a start instant
// is logged and skipped.
func ParseFeed(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, &ParseError{SourceID: src.ID, Err: errors.New("empty feed body")}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("feed parse failed", err, "id", src.ID)
		return nil, &ParseError{SourceID: src.ID, Err: err}
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Error("feed vevent skipped", perr, "id", src.ID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("feed parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{Source: src}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyUrl); p != nil {
		out.URL = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateOnly(dtStart)

	var err error
	if out.AllDay {
		out.Start, err = ve.GetAllDayStartAt()
		if err != nil {
			return out, fmt.Errorf("bad all-day DTSTART: %w", err)
		}
		if end, eerr := ve.GetAllDayEndAt(); eerr == nil {
			out.End = end
		}
	} else {
		out.Start, err = ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("bad DTSTART: %w", err)
		}
		if end, eerr := ve.GetEndAt(); eerr == nil {
			out.End = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE can appear multiple times and carry comma-separated values.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, terr := parseFeedTime(part); terr == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID tags a rescheduled instance of a recurring event. Raw
	// property name: the library has no constant for it.
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, terr := parseFeedTime(p.Value); terr == nil {
			out.RecurrenceID = &t
		}
	}

	return out, nil
}

// isDateOnly reports whether a DTSTART/DTEND property carries a DATE value
// (VALUE=DATE parameter or a value without a time component).
func isDateOnly(p *ical.IANAProperty) bool {
	if p.ICalParameters != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// parseFeedTime handles the basic DATE / DATE-TIME / UTC forms that appear
// in EXDATE values.
func parseFeedTime(v string) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
