package ics

import (
	"time"

	"studycal/internal/classify"
	"studycal/internal/model"
)

// FeedEvents adapts expanded occurrences into unified feed-assignment
// events. The date key comes from the start instant: timed events are
// bucketed in the display timezone, all-day events keep the calendar date
// the feed declared (converting a date-only value across zones would shift
// it off its own day).
//
// A recurring occurrence inherits its event's UID, so the occurrence date
// is folded into the ID to keep instances distinct. Events without a UID
// get a stable synthetic ID derived from their identity fields.
func FeedEvents(occurrences []Occurrence, loc *time.Location) []model.Event {
	if loc == nil {
		loc = time.Local
	}

	out := make([]model.Event, 0, len(occurrences))
	for _, occ := range occurrences {
		dateKey := model.DateKeyOf(occ.Start, loc)
		if occ.AllDay {
			dateKey = occ.Start.Format(model.DateKeyLayout)
		}

		title := occ.Summary
		if title == "" {
			title = model.PlaceholderTitle
		}

		startClock := ""
		endClock := ""
		if !occ.AllDay {
			startClock = model.ClockOf(occ.Start, loc)
			endClock = model.ClockOf(occ.End, loc)
		}

		id := occ.UID
		if id == "" {
			id = model.FallbackID(model.SourceFeed, title, dateKey, startClock)
		} else {
			id = id + "/" + dateKey
		}

		category, color := classify.Classify(title, occ.Description)

		out = append(out, model.Event{
			ID:          id,
			Title:       title,
			Description: occ.Description,
			StartTime:   startClock,
			EndTime:     endClock,
			DateKey:     dateKey,
			Source:      model.SourceFeed,
			Category:    category,
			Color:       color,
			Course:      occ.Source.Name,
			Location:    occ.Location,
			Link:        occ.URL,
		})
	}
	return out
}
