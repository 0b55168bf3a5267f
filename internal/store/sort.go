package store

import (
	"sort"

	"studycal/internal/classify"
	"studycal/internal/model"
)

// SortKey selects the ordering of the assignment list view.
type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByClass    SortKey = "class"
	SortByType     SortKey = "type"
	SortByPriority SortKey = "priority"
	SortByCategory SortKey = "category"
)

// Assignment is an Event flattened out of its bucket, with the bucket key
// exposed as the due date.
type Assignment struct {
	model.Event
	DueDate string `json:"due_date"`
}

// Assignments flattens the store into the assignment view and orders it by
// the given key. Only manual and feed assignments appear; study blocks and
// plain calendar events are excluded.
//
// Orderings:
//
//	date      ascending due date
//	class     ascending course name, empty first
//	type      ascending assignment type, empty first
//	priority  descending priority, ties by ascending due date
//	category  ascending category ("Other" when unset), ties by ascending due date
//
// An unknown key falls back to date order. The sort is stable: elements
// equal under the key and its tie-break keep their flattened input order
// (ascending date key, insertion order within a bucket).
func (s *Store) Assignments(key SortKey) []Assignment {
	events := s.flatten(func(ev model.Event) bool {
		return ev.Source.IsAssignment()
	})

	items := make([]Assignment, 0, len(events))
	for _, ev := range events {
		items = append(items, Assignment{Event: ev, DueDate: ev.DateKey})
	}

	less := lessFunc(key, items)
	sort.SliceStable(items, less)
	return items
}

func lessFunc(key SortKey, items []Assignment) func(i, j int) bool {
	switch key {
	case SortByClass:
		return func(i, j int) bool {
			return items[i].Course < items[j].Course
		}
	case SortByType:
		return func(i, j int) bool {
			return items[i].AssignmentType < items[j].AssignmentType
		}
	case SortByPriority:
		return func(i, j int) bool {
			if items[i].Priority != items[j].Priority {
				return items[i].Priority > items[j].Priority
			}
			return items[i].DueDate < items[j].DueDate
		}
	case SortByCategory:
		return func(i, j int) bool {
			ci, cj := categoryOrDefault(items[i]), categoryOrDefault(items[j])
			if ci != cj {
				return ci < cj
			}
			return items[i].DueDate < items[j].DueDate
		}
	default:
		// Includes SortByDate and any unrecognized key.
		return func(i, j int) bool {
			return items[i].DueDate < items[j].DueDate
		}
	}
}

func categoryOrDefault(a Assignment) string {
	if a.Category == "" {
		return classify.CategoryOther
	}
	return a.Category
}
