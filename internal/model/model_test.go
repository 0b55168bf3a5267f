package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDays(t *testing.T) {
	tests := []struct {
		name    string
		dateKey string
		days    int
		want    string
	}{
		{"one back", "2024-12-16", -1, "2024-12-15"},
		{"across month", "2024-12-01", -1, "2024-11-30"},
		{"across year", "2025-01-01", -1, "2024-12-31"},
		{"forward", "2024-12-16", 3, "2024-12-19"},
		{"leap day", "2024-03-01", -1, "2024-02-29"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AddDays(tc.dateKey, tc.days)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAddDaysRejectsBadKey(t *testing.T) {
	_, err := AddDays("12/16/2024", -1)
	assert.Error(t, err)
}

func TestDateKeyOfUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC is still the previous evening in New York.
	instant := time.Date(2024, 12, 16, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-12-16", DateKeyOf(instant, time.UTC))
	assert.Equal(t, "2024-12-15", DateKeyOf(instant, ny))
}

func TestClockOfZeroTime(t *testing.T) {
	assert.Equal(t, "", ClockOf(time.Time{}, time.UTC))
}

func TestFallbackIDStable(t *testing.T) {
	a := FallbackID(SourceFeed, "Essay", "2024-12-15", "14:00")
	b := FallbackID(SourceFeed, "Essay", "2024-12-15", "14:00")
	assert.Equal(t, a, b)

	c := FallbackID(SourceProxy, "Essay", "2024-12-15", "14:00")
	assert.NotEqual(t, a, c)
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("high"))
	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityLow, ParsePriority("Low"))
	assert.Equal(t, PriorityLow, ParsePriority("LOW"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
	assert.Equal(t, PriorityMedium, ParsePriority("urgent"))
}

func TestNewManualAssignment(t *testing.T) {
	ev, err := NewManualAssignment("id-1", ManualInput{
		Title:          "History essay",
		DueDate:        "2024-12-16",
		Time:           "23:59",
		Course:         "History",
		AssignmentType: "Essay",
		Priority:       PriorityHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, SourceManual, ev.Source)
	assert.Equal(t, "2024-12-16", ev.DateKey)
	assert.Equal(t, "Essay", ev.Category)
	assert.Equal(t, "red", ev.Color)
	assert.False(t, ev.Completed)
}

func TestNewManualAssignmentDefaults(t *testing.T) {
	ev, err := NewManualAssignment("id-2", ManualInput{DueDate: "2024-12-16"})
	require.NoError(t, err)

	assert.Equal(t, PlaceholderTitle, ev.Title)
	assert.Equal(t, PriorityMedium, ev.Priority)
	assert.Equal(t, "Assignments/Tests", ev.Category)
}

func TestNewManualAssignmentRequiresDueDate(t *testing.T) {
	_, err := NewManualAssignment("id-3", ManualInput{Title: "No date"})
	assert.Error(t, err)

	_, err = NewManualAssignment("id-4", ManualInput{Title: "Bad date", DueDate: "tomorrow"})
	assert.Error(t, err)
}

func TestNewStudyBlock(t *testing.T) {
	a := Event{ID: "a1", Title: "Physics Quiz", DateKey: "2024-12-16", Source: SourceFeed}
	b := NewStudyBlock(a, "2024-12-15", "19:00", time.Hour)

	assert.Equal(t, "study-a1", b.ID)
	assert.Equal(t, SourceStudyBlock, b.Source)
	assert.Equal(t, "2024-12-15", b.DateKey)
	assert.Equal(t, "19:00", b.StartTime)
	assert.Equal(t, "20:00", b.EndTime)
	assert.Equal(t, "a1", b.RelatedAssignment)
}
