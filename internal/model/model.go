package model

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// DateKeyLayout is the canonical bucketing key format. Lexicographic
// comparison of two date keys matches chronological order.
const DateKeyLayout = "2006-01-02"

// ClockLayout is the wall-clock display format for event start/end times.
const ClockLayout = "15:04"

// PlaceholderTitle is substituted when an upstream source provides no title.
const PlaceholderTitle = "(untitled)"

// SourceType tags an Event with its origin. Merging is scoped per source:
// two events only collide on dedup when both source and ID match.
type SourceType string

const (
	// SourceManual marks assignments entered through the manual-entry API.
	SourceManual SourceType = "manual"
	// SourceFeed marks assignments parsed from an ICS feed (or flagged as
	// Canvas-like on a vendor calendar).
	SourceFeed SourceType = "feed"
	// SourceCalendar marks generic events from the Google Calendar API.
	SourceCalendar SourceType = "calendar"
	// SourceProxy marks events fetched through the Apps Script JSON proxy.
	SourceProxy SourceType = "proxy"
	// SourceStudyBlock marks generated study reminders. Never produced by
	// an upstream source.
	SourceStudyBlock SourceType = "study"
)

// IsAssignment reports whether events of this source appear in the
// assignment list views.
func (s SourceType) IsAssignment() bool {
	return s == SourceManual || s == SourceFeed
}

// Priority orders manual assignments. Higher values sort first.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// ParsePriority maps a form value to a Priority, defaulting to Medium for
// unknown or empty input.
func ParsePriority(s string) Priority {
	switch {
	case strings.EqualFold(s, "high"):
		return PriorityHigh
	case strings.EqualFold(s, "low"):
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "medium"
	}
}

// Event is the unified calendar record produced by every adapter and owned
// by the store once merged. Which fields are meaningful depends on Source:
//
//   - Priority and Completed apply to SourceManual only.
//   - RelatedAssignment applies to SourceStudyBlock only.
//   - Category/Color come from the classifier for calendar/proxy sources
//     and from user selection for manual ones.
//
// Constructors below enforce the per-source shape; adapters should prefer
// them over struct literals.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// StartTime / EndTime are display clock strings ("HH:MM") derived from
	// the absolute instants in the configured display timezone.
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`

	// DateKey is the bucketing key derived from the start instant. Every
	// event belongs to exactly one bucket.
	DateKey string `json:"date_key"`

	Source   SourceType `json:"source"`
	Category string     `json:"category,omitempty"`
	Color    string     `json:"color,omitempty"`

	Course         string   `json:"course,omitempty"`
	AssignmentType string   `json:"assignment_type,omitempty"`
	Priority       Priority `json:"priority,omitempty"`
	Completed      bool     `json:"completed,omitempty"`

	Location string `json:"location,omitempty"`
	Link     string `json:"link,omitempty"`

	// RelatedAssignment is the originating assignment's ID on study blocks.
	RelatedAssignment string `json:"related_assignment,omitempty"`
}

// DateKeyOf truncates an instant to its calendar date in loc.
func DateKeyOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateKeyLayout)
}

// ClockOf formats an instant as a display clock string in loc. The zero
// time yields an empty string so date-only events carry no clock.
func ClockOf(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(ClockLayout)
}

// AddDays shifts a date key by a number of days (negative shifts backward).
func AddDays(dateKey string, days int) (string, error) {
	t, err := time.Parse(DateKeyLayout, dateKey)
	if err != nil {
		return "", fmt.Errorf("bad date key %q: %w", dateKey, err)
	}
	return t.AddDate(0, 0, days).Format(DateKeyLayout), nil
}

// FallbackID derives a stable synthetic ID for events whose source provides
// none. It is a pure function of the event's identity fields, so re-parsing
// the same upstream data yields the same ID and re-merges stay idempotent.
func FallbackID(source SourceType, title, dateKey, startTime string) string {
	h := fnv.New64a()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(dateKey))
	h.Write([]byte{0})
	h.Write([]byte(startTime))
	return fmt.Sprintf("%s-%016x", source, h.Sum64())
}

// ManualInput is the shape of a manual-entry form submission.
type ManualInput struct {
	Title          string
	Description    string
	DueDate        string // date key
	Time           string // display clock, optional
	Course         string
	AssignmentType string
	Priority       Priority
}

// NewManualAssignment builds a manual assignment from form input. The
// category is derived from the user-chosen course/type rather than the
// keyword classifier.
func NewManualAssignment(id string, in ManualInput) (Event, error) {
	if in.DueDate == "" {
		return Event{}, errors.New("manual assignment requires a due date")
	}
	if _, err := time.Parse(DateKeyLayout, in.DueDate); err != nil {
		return Event{}, fmt.Errorf("bad due date %q: %w", in.DueDate, err)
	}
	title := in.Title
	if title == "" {
		title = PlaceholderTitle
	}
	prio := in.Priority
	if prio == 0 {
		prio = PriorityMedium
	}
	category := in.AssignmentType
	if category == "" {
		category = "Assignments/Tests"
	}
	return Event{
		ID:             id,
		Title:          title,
		Description:    in.Description,
		StartTime:      in.Time,
		DateKey:        in.DueDate,
		Source:         SourceManual,
		Category:       category,
		Color:          colorForPriority(prio),
		Course:         in.Course,
		AssignmentType: in.AssignmentType,
		Priority:       prio,
	}, nil
}

func colorForPriority(p Priority) string {
	switch p {
	case PriorityHigh:
		return "red"
	case PriorityLow:
		return "green"
	default:
		return "yellow"
	}
}

// NewStudyBlock derives a study reminder for an assignment. The caller
// supplies the already-shifted date key and the slot start time; the end
// time is start plus duration.
func NewStudyBlock(assignment Event, dateKey, startTime string, duration time.Duration) Event {
	end := ""
	if st, err := time.Parse(ClockLayout, startTime); err == nil && duration > 0 {
		end = st.Add(duration).Format(ClockLayout)
	}
	return Event{
		ID:                "study-" + assignment.ID,
		Title:             "Study: " + assignment.Title,
		Description:       "Prepare for " + assignment.Title + " (due " + assignment.DateKey + ")",
		StartTime:         startTime,
		EndTime:           end,
		DateKey:           dateKey,
		Source:            SourceStudyBlock,
		Category:          "Study",
		Color:             "purple",
		RelatedAssignment: assignment.ID,
	}
}
