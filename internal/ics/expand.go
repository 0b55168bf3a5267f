package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "studycal/internal/log"
)

const defaultMaxOccurrencesPerEvent = 1000

// Occurrence is a single concrete instance of a parsed event after
// recurrence expansion.
type Occurrence struct {
	Source Source

	UID         string
	Summary     string
	Description string
	Location    string
	URL         string

	Start  time.Time
	End    time.Time
	AllDay bool
}

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the inclusive window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps expansion of a single RRULE. Zero means
	// the package default.
	MaxOccurrencesPerEvent int
}

// Expand turns parsed events into concrete occurrences within the window.
// Non-recurring events pass through when they intersect the window; RRULE
// events are expanded with EXDATEs removed and RECURRENCE-ID overrides
// substituted for the instances they reschedule. A malformed RRULE drops
// only that event.
func Expand(events []ParsedEvent, cfg ExpandConfig) ([]Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: range end before range start")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		}
	}

	out := make([]Occurrence, 0, len(events))
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			// Overrides are consumed alongside their base event.
			continue
		}
		overrides := overridesByUID[ev.UID]
		if ev.RawRRule == "" {
			src, start, end := ev, ev.Start, ev.End
			if o, ok := overrideFor(overrides, start); ok {
				src, start, end = o, o.Start, o.End
			}
			if overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
				out = append(out, makeOccurrence(src, start, end))
			}
			continue
		}
		out = append(out, expandRecurring(ev, overrides, cfg)...)
	}
	return out, nil
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []Occurrence {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: bad RRULE, dropping event", err, "uid", ev.UID)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())
	starts := set.Between(rangeStart, rangeEnd, true)
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		appLog.Error("expand: occurrence cap hit, truncating", errors.New("cap reached"),
			"uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		starts = starts[:cfg.MaxOccurrencesPerEvent]
	}

	duration := ev.End.Sub(ev.Start)
	out := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		var end time.Time
		if ev.AllDay {
			start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			end = start.Add(24 * time.Hour)
		} else if duration > 0 {
			end = start.Add(duration)
		}
		src := ev
		if o, ok := overrideFor(overrides, start); ok {
			src, start, end = o, o.Start, o.End
		}
		out = append(out, makeOccurrence(src, start, end))
	}
	return out
}

// overrideFor returns the override whose RECURRENCE-ID equals the instance
// start.
func overrideFor(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, o := range overrides {
		if o.RecurrenceID != nil && o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return ParsedEvent{}, false
}

func makeOccurrence(ev ParsedEvent, start, end time.Time) Occurrence {
	return Occurrence{
		Source:      ev.Source,
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		URL:         ev.URL,
		Start:       start,
		End:         end,
		AllDay:      ev.AllDay,
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.IsZero() {
		aEnd = aStart
	}
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
