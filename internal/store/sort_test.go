package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycal/internal/classify"
	"studycal/internal/model"
)

func storeWith(events ...model.Event) *Store {
	s := New()
	for _, ev := range events {
		s.MergeBatch(ev.Source, []model.Event{ev})
	}
	return s
}

func TestAssignmentsFiltersSources(t *testing.T) {
	s := storeWith(
		model.Event{ID: "f", DateKey: "2024-12-15", Source: model.SourceFeed, Title: "Feed"},
		model.Event{ID: "m", DateKey: "2024-12-15", Source: model.SourceManual, Title: "Manual"},
		model.Event{ID: "c", DateKey: "2024-12-15", Source: model.SourceCalendar, Title: "Calendar"},
		model.Event{ID: "p", DateKey: "2024-12-15", Source: model.SourceProxy, Title: "Proxy"},
		model.Event{ID: "s", DateKey: "2024-12-15", Source: model.SourceStudyBlock, Title: "Study"},
	)

	items := s.Assignments(SortByDate)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.True(t, item.Source.IsAssignment())
		assert.Equal(t, item.DateKey, item.DueDate)
	}
}

func TestAssignmentsSortByDate(t *testing.T) {
	s := storeWith(
		model.Event{ID: "b", DateKey: "2024-12-20", Source: model.SourceFeed},
		model.Event{ID: "a", DateKey: "2024-12-15", Source: model.SourceFeed},
		model.Event{ID: "c", DateKey: "2025-01-02", Source: model.SourceFeed},
	)

	items := s.Assignments(SortByDate)
	require.Len(t, items, 3)
	assert.Equal(t, "2024-12-15", items[0].DueDate)
	assert.Equal(t, "2024-12-20", items[1].DueDate)
	assert.Equal(t, "2025-01-02", items[2].DueDate)
}

// Equal sort keys keep their flattened input order.
func TestAssignmentsSortByClassStable(t *testing.T) {
	s := storeWith(
		model.Event{ID: "a", Title: "A", Course: "math", DateKey: "2024-12-15", Source: model.SourceManual},
		model.Event{ID: "b", Title: "B", Course: "math", DateKey: "2024-12-15", Source: model.SourceManual},
	)

	items := s.Assignments(SortByClass)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Title)
	assert.Equal(t, "B", items[1].Title)
}

func TestAssignmentsSortByClassEmptyFirst(t *testing.T) {
	s := storeWith(
		model.Event{ID: "a", Course: "math", DateKey: "2024-12-15", Source: model.SourceManual},
		model.Event{ID: "b", Course: "", DateKey: "2024-12-15", Source: model.SourceManual},
	)

	items := s.Assignments(SortByClass)
	require.Len(t, items, 2)
	assert.Equal(t, "", items[0].Course)
	assert.Equal(t, "math", items[1].Course)
}

func TestAssignmentsSortByType(t *testing.T) {
	s := storeWith(
		model.Event{ID: "a", AssignmentType: "quiz", DateKey: "2024-12-15", Source: model.SourceManual},
		model.Event{ID: "b", AssignmentType: "essay", DateKey: "2024-12-15", Source: model.SourceManual},
		model.Event{ID: "c", AssignmentType: "", DateKey: "2024-12-15", Source: model.SourceManual},
	)

	items := s.Assignments(SortByType)
	require.Len(t, items, 3)
	assert.Equal(t, "", items[0].AssignmentType)
	assert.Equal(t, "essay", items[1].AssignmentType)
	assert.Equal(t, "quiz", items[2].AssignmentType)
}

func TestAssignmentsSortByPriority(t *testing.T) {
	s := storeWith(
		model.Event{ID: "low", Priority: model.PriorityLow, DateKey: "2024-12-15", Source: model.SourceManual},
		model.Event{ID: "high", Priority: model.PriorityHigh, DateKey: "2024-12-15", Source: model.SourceManual},
		model.Event{ID: "med", Priority: model.PriorityMedium, DateKey: "2024-12-15", Source: model.SourceManual},
	)

	items := s.Assignments(SortByPriority)
	require.Len(t, items, 3)
	assert.Equal(t, "high", items[0].ID)
	assert.Equal(t, "med", items[1].ID)
	assert.Equal(t, "low", items[2].ID)
}

func TestAssignmentsSortByPriorityTieBreaksOnDueDate(t *testing.T) {
	s := storeWith(
		model.Event{ID: "later", Priority: model.PriorityHigh, DateKey: "2024-12-20", Source: model.SourceManual},
		model.Event{ID: "sooner", Priority: model.PriorityHigh, DateKey: "2024-12-15", Source: model.SourceManual},
	)

	items := s.Assignments(SortByPriority)
	require.Len(t, items, 2)
	assert.Equal(t, "sooner", items[0].ID)
	assert.Equal(t, "later", items[1].ID)
}

func TestAssignmentsSortByCategoryDefaultsOther(t *testing.T) {
	s := storeWith(
		model.Event{ID: "a", Category: classify.CategoryClasses, DateKey: "2024-12-15", Source: model.SourceFeed},
		model.Event{ID: "b", Category: "", DateKey: "2024-12-15", Source: model.SourceFeed},
	)

	items := s.Assignments(SortByCategory)
	require.Len(t, items, 2)
	// "Classes" < "Other" lexicographically.
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
}

func TestAssignmentsUnknownKeyFallsBackToDate(t *testing.T) {
	s := storeWith(
		model.Event{ID: "b", DateKey: "2024-12-20", Source: model.SourceFeed},
		model.Event{ID: "a", DateKey: "2024-12-15", Source: model.SourceFeed},
	)

	items := s.Assignments(SortKey("bogus"))
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
}
