// Package study derives study-block reminders from assignment due dates.
// Blocks are scheduled purely from due dates; no conflict detection against
// whatever else occupies the target day is attempted.
package study

import (
	"sort"
	"time"

	appLog "studycal/internal/log"
	"studycal/internal/model"
)

// Policy selects how block slots are assigned when several assignments land
// on the same study date.
type Policy string

const (
	// PolicySingle emits one block per assignment at the fixed study time.
	PolicySingle Policy = "single"
	// PolicyRotate cycles through preferred times per study date and stops
	// scheduling once the per-day block cap is reached.
	PolicyRotate Policy = "rotate"
	// PolicyOptimize processes assignments in due-date order and gates
	// scheduling on a per-day hour budget, one hour per block.
	PolicyOptimize Policy = "optimize"
)

// Config controls the generator. Zero values fall back to the defaults in
// normalize; an unknown policy behaves as PolicySingle.
type Config struct {
	Policy Policy

	// StudyTime is the fixed slot used by PolicySingle and PolicyOptimize.
	StudyTime string
	// PreferredTimes are the rotating slots for PolicyRotate.
	PreferredTimes []string

	Duration   time.Duration
	DaysBefore int

	// MaxBlocksPerDay caps PolicyRotate. Assignments past the cap for a
	// study date are silently skipped.
	MaxBlocksPerDay int
	// MaxHoursPerDay caps PolicyOptimize the same way.
	MaxHoursPerDay int
}

func (c Config) normalize() Config {
	if c.StudyTime == "" {
		c.StudyTime = "19:00"
	}
	if len(c.PreferredTimes) == 0 {
		c.PreferredTimes = []string{c.StudyTime}
	}
	if c.Duration <= 0 {
		c.Duration = time.Hour
	}
	if c.DaysBefore <= 0 {
		c.DaysBefore = 1
	}
	if c.MaxBlocksPerDay <= 0 {
		c.MaxBlocksPerDay = 3
	}
	if c.MaxHoursPerDay <= 0 {
		c.MaxHoursPerDay = 3
	}
	return c
}

// Plan emits study blocks for the given assignments. Assignments whose due
// date cannot be shifted (malformed date key) are skipped with a log line;
// assignments dropped by a daily cap produce no block and no error, so a
// caller needing visibility must compare output and input counts.
func Plan(assignments []model.Event, cfg Config) []model.Event {
	cfg = cfg.normalize()

	switch cfg.Policy {
	case PolicyRotate:
		return planRotate(assignments, cfg)
	case PolicyOptimize:
		return planOptimize(assignments, cfg)
	default:
		return planSingle(assignments, cfg)
	}
}

func planSingle(assignments []model.Event, cfg Config) []model.Event {
	blocks := make([]model.Event, 0, len(assignments))
	for _, a := range assignments {
		date, err := model.AddDays(a.DateKey, -cfg.DaysBefore)
		if err != nil {
			appLog.Error("study: skipping assignment", err, "id", a.ID)
			continue
		}
		blocks = append(blocks, model.NewStudyBlock(a, date, cfg.StudyTime, cfg.Duration))
	}
	return blocks
}

// planRotate processes assignments in input order. A per-date counter picks
// the next preferred time; once it reaches the cap, later assignments for
// that date are dropped.
func planRotate(assignments []model.Event, cfg Config) []model.Event {
	blocks := make([]model.Event, 0, len(assignments))
	perDate := make(map[string]int)

	for _, a := range assignments {
		date, err := model.AddDays(a.DateKey, -cfg.DaysBefore)
		if err != nil {
			appLog.Error("study: skipping assignment", err, "id", a.ID)
			continue
		}
		count := perDate[date]
		if count >= cfg.MaxBlocksPerDay {
			appLog.Debug("study: daily cap reached, dropping", "date", date, "assignment", a.ID)
			continue
		}
		slot := cfg.PreferredTimes[count%len(cfg.PreferredTimes)]
		perDate[date] = count + 1
		blocks = append(blocks, model.NewStudyBlock(a, date, slot, cfg.Duration))
	}
	return blocks
}

// planOptimize sorts assignments by due date first, then spends a per-date
// hour budget one hour per block. Each block on the same date starts one
// hour after the previous so the scheduled hours are contiguous.
func planOptimize(assignments []model.Event, cfg Config) []model.Event {
	ordered := make([]model.Event, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DateKey < ordered[j].DateKey
	})

	blocks := make([]model.Event, 0, len(ordered))
	hoursUsed := make(map[string]int)

	for _, a := range ordered {
		date, err := model.AddDays(a.DateKey, -cfg.DaysBefore)
		if err != nil {
			appLog.Error("study: skipping assignment", err, "id", a.ID)
			continue
		}
		used := hoursUsed[date]
		if used >= cfg.MaxHoursPerDay {
			appLog.Debug("study: hour budget spent, dropping", "date", date, "assignment", a.ID)
			continue
		}
		slot := shiftClock(cfg.StudyTime, used)
		hoursUsed[date] = used + 1
		blocks = append(blocks, model.NewStudyBlock(a, date, slot, cfg.Duration))
	}
	return blocks
}

// shiftClock moves a display clock string forward by whole hours.
func shiftClock(clock string, hours int) string {
	t, err := time.Parse(model.ClockLayout, clock)
	if err != nil {
		return clock
	}
	return t.Add(time.Duration(hours) * time.Hour).Format(model.ClockLayout)
}
