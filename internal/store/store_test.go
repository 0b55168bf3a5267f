package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycal/internal/model"
)

func feedEvent(id, dateKey, title string) model.Event {
	return model.Event{ID: id, Title: title, DateKey: dateKey, Source: model.SourceFeed}
}

func TestMergeBatchBucketsByDateKey(t *testing.T) {
	s := New()
	s.MergeBatch(model.SourceFeed, []model.Event{
		feedEvent("a", "2024-12-15", "A"),
		feedEvent("b", "2024-12-16", "B"),
	})

	require.Len(t, s.Events("2024-12-15"), 1)
	require.Len(t, s.Events("2024-12-16"), 1)
	assert.Nil(t, s.Events("2024-12-17"))
	assert.Equal(t, 2, s.Len())
}

func TestMergeBatchIdempotentRemerge(t *testing.T) {
	batch := []model.Event{
		feedEvent("a", "2024-12-15", "A"),
		feedEvent("b", "2024-12-15", "B"),
	}

	s := New()
	s.MergeBatch(model.SourceFeed, batch)
	once := s.Range("", "")

	s.MergeBatch(model.SourceFeed, batch)
	twice := s.Range("", "")

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("re-merge changed store state (-once +twice):\n%s", diff)
	}
	assert.Equal(t, 2, s.Len())
}

func TestMergeBatchUpsertsById(t *testing.T) {
	s := New()
	s.MergeBatch(model.SourceFeed, []model.Event{feedEvent("a", "2024-12-15", "old title")})
	s.MergeBatch(model.SourceFeed, []model.Event{feedEvent("a", "2024-12-15", "new title")})

	events := s.Events("2024-12-15")
	require.Len(t, events, 1)
	assert.Equal(t, "new title", events[0].Title)
}

// Same ID, different bucket: dedup is scoped to the event's own date key,
// so both copies survive.
func TestMergeBatchNoCrossBucketDedup(t *testing.T) {
	s := New()
	s.MergeBatch(model.SourceFeed, []model.Event{feedEvent("a", "2024-12-15", "A")})
	s.MergeBatch(model.SourceFeed, []model.Event{feedEvent("a", "2024-12-16", "A")})

	assert.Equal(t, 2, s.Len())
}

func TestMergeBatchPreservesOtherSources(t *testing.T) {
	s := New()
	manual, err := model.NewManualAssignment("m1", model.ManualInput{
		Title:   "Essay",
		DueDate: "2024-12-15",
	})
	require.NoError(t, err)
	s.MergeBatch(model.SourceManual, []model.Event{manual})

	// A feed batch into the same bucket, even with a colliding ID string.
	s.MergeBatch(model.SourceFeed, []model.Event{feedEvent("m1", "2024-12-15", "Feed item")})

	events := s.Events("2024-12-15")
	require.Len(t, events, 2)

	var sources []model.SourceType
	for _, ev := range events {
		sources = append(sources, ev.Source)
	}
	assert.Contains(t, sources, model.SourceManual)
	assert.Contains(t, sources, model.SourceFeed)
}

func TestMergeBatchDropsEventsWithoutDateKey(t *testing.T) {
	s := New()
	s.MergeBatch(model.SourceFeed, []model.Event{{ID: "x", Title: "No date"}})
	assert.Equal(t, 0, s.Len())
}

func TestMergeBatchFillsFallbacks(t *testing.T) {
	s := New()
	s.MergeBatch(model.SourceFeed, []model.Event{{DateKey: "2024-12-15"}})

	events := s.Events("2024-12-15")
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, model.PlaceholderTitle, events[0].Title)

	// The fallback ID is stable, so a re-merge of the same shape dedups.
	s.MergeBatch(model.SourceFeed, []model.Event{{DateKey: "2024-12-15"}})
	assert.Equal(t, 1, s.Len())
}

func TestEventsReturnsCopies(t *testing.T) {
	s := New()
	s.MergeBatch(model.SourceFeed, []model.Event{feedEvent("a", "2024-12-15", "A")})

	events := s.Events("2024-12-15")
	events[0].Title = "mutated"

	assert.Equal(t, "A", s.Events("2024-12-15")[0].Title)
}

func TestRangeBounds(t *testing.T) {
	s := New()
	s.MergeBatch(model.SourceFeed, []model.Event{
		feedEvent("a", "2024-12-15", "A"),
		feedEvent("b", "2024-12-18", "B"),
		feedEvent("c", "2024-12-25", "C"),
	})

	got := s.Range("2024-12-16", "2024-12-20")
	require.Len(t, got, 1)
	assert.Len(t, got["2024-12-18"], 1)
}

func TestDatesSorted(t *testing.T) {
	s := New()
	s.MergeBatch(model.SourceFeed, []model.Event{
		feedEvent("b", "2024-12-18", "B"),
		feedEvent("a", "2024-12-15", "A"),
	})

	assert.Equal(t, []string{"2024-12-15", "2024-12-18"}, s.Dates())
}
