package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		category    string
		color       string
	}{
		{"class keyword", "Honors Physics", "", CategoryClasses, ColorBlue},
		{"sports keyword", "Cross Country Meet", "", CategorySports, ColorGreen},
		{"meeting keyword", "Chapel", "", CategoryMeetings, ColorYellow},
		{"assignment keyword", "History essay", "", CategoryAssignments, ColorRed},
		{"description matches too", "Tuesday", "advisor check-in", CategoryMeetings, ColorYellow},
		{"no match", "Lunch", "", CategoryOther, ColorGray},
		{"empty input", "", "", CategoryOther, ColorGray},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			category, color := Classify(tc.title, tc.description)
			assert.Equal(t, tc.category, category)
			assert.Equal(t, tc.color, color)
		})
	}
}

// Rule order is significant: a title matching both the class table and the
// assignment table resolves to the earlier-listed class category.
func TestClassifyFirstMatchWins(t *testing.T) {
	category, color := Classify("Math Homework", "")
	assert.Equal(t, CategoryClasses, category)
	assert.Equal(t, ColorBlue, color)
}

func TestClassifyDeterministic(t *testing.T) {
	c1, col1 := Classify("Spanish quiz prep", "vocab list")
	c2, col2 := Classify("Spanish quiz prep", "vocab list")
	assert.Equal(t, c1, c2)
	assert.Equal(t, col1, col2)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	category, _ := Classify("CALCULUS REVIEW", "")
	assert.Equal(t, CategoryClasses, category)
}

func TestCanvasLike(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		colorMarker string
		want        bool
	}{
		{"keyword in title", "HW 5", "", "", true},
		{"keyword in description", "Friday", "turn in your paper", "", true},
		{"color marker", "Untitled", "", CanvasColorMarker, true},
		{"marker beats missing keywords", "Chess club", "", CanvasColorMarker, true},
		{"other marker, no keywords", "Chess club", "", "3", false},
		{"nothing", "Lunch", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanvasLike(tc.title, tc.description, tc.colorMarker))
		})
	}
}
