// Package classify assigns a semantic category and display color to raw
// calendar events based on keyword matching. Rules are evaluated in a fixed
// order; the first matching rule wins, so a title containing both a class
// keyword and an assignment keyword resolves to the class category.
package classify

import "strings"

// Category labels used across the application.
const (
	CategoryClasses     = "Classes"
	CategorySports      = "Sports/Activities"
	CategoryMeetings    = "Meetings/Chapel/Advisory"
	CategoryAssignments = "Assignments/Tests"
	CategoryOther       = "Other"
)

// Display color tags. These are advisory metadata for the display layer;
// nothing in the engine branches on them.
const (
	ColorBlue   = "blue"
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorGray   = "gray"
)

// CanvasColorMarker is the vendor colorId Canvas sets on assignments it
// pushes into Google Calendar. Its presence flags an event as Canvas-like
// regardless of keywords.
const CanvasColorMarker = "11"

type rule struct {
	keywords []string
	category string
	color    string
}

// rules is ordered; evaluation stops at the first match.
var rules = []rule{
	{[]string{"hon", "humanities", "math", "calculus", "physics", "spanish"}, CategoryClasses, ColorBlue},
	{[]string{"cross country", "ath", "practice"}, CategorySports, ColorGreen},
	{[]string{"meeting", "chapel", "advisor"}, CategoryMeetings, ColorYellow},
	{[]string{"homework", "test", "quiz", "essay", "project"}, CategoryAssignments, ColorRed},
}

// canvasKeywords flag Canvas-origin items arriving through a generic
// calendar source.
var canvasKeywords = []string{"assignment", "homework", "quiz", "essay", "project", "hw", "paper"}

// Classify maps an event's title and description to a category and color.
// Matching is a case-insensitive substring check against the combined text.
// Unmatched input resolves to CategoryOther; Classify never fails.
func Classify(title, description string) (category, color string) {
	text := strings.ToLower(title + " " + description)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.category, r.color
			}
		}
	}
	return CategoryOther, ColorGray
}

// CanvasLike reports whether an event from a generic calendar source looks
// like a Canvas assignment. The vendor color marker takes priority over the
// keyword check.
func CanvasLike(title, description, colorMarker string) bool {
	if colorMarker == CanvasColorMarker {
		return true
	}
	text := strings.ToLower(title + " " + description)
	for _, kw := range canvasKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
