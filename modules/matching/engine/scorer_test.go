package engine

import (
	"testing"
	"time"

	"smartschedule/modules/matching/entity"

	"github.com/stretchr/testify/assert"
)

func slotAt(day time.Time, hour, minute int, d time.Duration) entity.CandidateSlot {
	start := at(day, hour, minute)
	return entity.CandidateSlot{Start: start, End: start.Add(d)}
}

func TestScorerConflictAtTwoPM(t *testing.T) {
	scorer := NewScorer()
	slot := slotAt(testNow, 14, 0, time.Hour)
	aEvents := []entity.CalendarEvent{event("standup", at(testNow, 14, 0), at(testNow, 15, 0))}

	for _, bEvents := range [][]entity.CalendarEvent{nil, {event("other", at(testNow, 9, 0), at(testNow, 10, 0))}} {
		a := scorer.IsAvailable(slot, aEvents, Profile{Availability: entity.BusinessWeek()})
		b := scorer.IsAvailable(slot, bEvents, Profile{Availability: entity.BusinessWeek()})
		assert.False(t, a.Available)
		assert.Zero(t, a.Confidence)
		assert.Equal(t, ReasonConflict, a.Reason)
		assert.True(t, b.Available)
	}
}

func TestScorerTouchingEventsDoNotConflict(t *testing.T) {
	slot := slotAt(testNow, 14, 0, time.Hour)
	events := []entity.CalendarEvent{
		event("before", at(testNow, 13, 0), at(testNow, 14, 0)),
		event("after", at(testNow, 15, 0), at(testNow, 16, 0)),
	}
	v := NewScorer().IsAvailable(slot, events, Profile{})
	assert.True(t, v.Available)
}

func TestScorerMonotonic(t *testing.T) {
	scorer := NewScorer()
	grid := NewGrid(GridRequest{
		Duration:     time.Hour,
		HorizonStart: testNow,
		HorizonDays:  3,
		MaxSlots:     1000,
	}, testOptions(testNow))

	base := []entity.CalendarEvent{event("x", at(testNow, 11, 0), at(testNow, 12, 0))}
	extra := append(base[:1:1], event("y", at(testNow, 13, 30), at(testNow, 15, 0)))
	profile := Profile{Availability: entity.BusinessWeek()}

	for slot := range grid.All() {
		before := scorer.IsAvailable(slot, base, profile)
		after := scorer.IsAvailable(slot, extra, profile)
		if !before.Available {
			assert.False(t, after.Available, "slot %s became available", slot.Start)
		}
	}
}

func TestScorerWorkingPattern(t *testing.T) {
	analysis := entity.DefaultAnalysis(30)
	analysis.Pattern.Days[time.Wednesday] = entity.DayPattern{
		Weekday: time.Wednesday,
		Start:   entity.NewClockTime(10, 0),
		End:     entity.NewClockTime(16, 0),
		Enabled: true,
	}
	analysis.Pattern.Days[time.Thursday].Enabled = false
	profile := Profile{Analysis: &analysis}
	scorer := NewScorer()

	assert.Equal(t, ReasonOutsideHours, scorer.IsAvailable(slotAt(testNow, 9, 30, time.Hour), nil, profile).Reason)
	assert.Equal(t, ReasonOutsideHours, scorer.IsAvailable(slotAt(testNow, 15, 30, time.Hour), nil, profile).Reason)
	assert.True(t, scorer.IsAvailable(slotAt(testNow, 15, 0, time.Hour), nil, profile).Available)

	thursday := testNow.AddDate(0, 0, 1)
	assert.Equal(t, ReasonDayDisabled, scorer.IsAvailable(slotAt(thursday, 10, 0, time.Hour), nil, profile).Reason)
}

func TestScorerDeclaredAvailabilityOverridesPattern(t *testing.T) {
	analysis := entity.DefaultAnalysis(30)
	profile := Profile{
		Analysis: &analysis,
		Availability: entity.WeeklyAvailability{
			time.Wednesday: {entity.MustTimeWindow("07:00", "08:30"), entity.MustTimeWindow("18:00", "20:00")},
		},
	}
	scorer := NewScorer()

	assert.True(t, scorer.IsAvailable(slotAt(testNow, 18, 30, time.Hour), nil, profile).Available)
	assert.Equal(t, ReasonOutsideHours, scorer.IsAvailable(slotAt(testNow, 10, 0, time.Hour), nil, profile).Reason)

	thursday := testNow.AddDate(0, 0, 1)
	assert.Equal(t, ReasonDayDisabled, scorer.IsAvailable(slotAt(thursday, 18, 0, time.Hour), nil, profile).Reason)
}

func TestScorerLunch(t *testing.T) {
	analysis := entity.DefaultAnalysis(30)
	analysis.Lunch = entity.LunchWindowPattern{
		Start:    entity.NewClockTime(12, 0),
		End:      entity.NewClockTime(12, 50),
		Enabled:  true,
		Inferred: true,
	}
	profile := Profile{Analysis: &analysis}
	scorer := NewScorer()

	assert.Equal(t, ReasonLunch, scorer.IsAvailable(slotAt(testNow, 11, 30, time.Hour), nil, profile).Reason)
	assert.True(t, scorer.IsAvailable(slotAt(testNow, 13, 0, time.Hour), nil, profile).Available)

	analysis.Lunch.Enabled = false
	assert.True(t, scorer.IsAvailable(slotAt(testNow, 12, 0, time.Hour), nil, profile).Available)
}

func TestScorerHeuristicWithoutHistory(t *testing.T) {
	scorer := NewScorer()
	cases := map[int]float64{10: 0.8, 14: 0.7, 9: 0.6, 16: 0.6, 12: 0.6, 8: 0.3, 18: 0.3}
	for hour, want := range cases {
		v := scorer.IsAvailable(slotAt(testNow, hour, 0, 30*time.Minute), nil, Profile{})
		assert.True(t, v.Available)
		assert.InDelta(t, want, v.Confidence, 0.001, "hour %d", hour)
		assert.Equal(t, ReasonNoHistoryGuess, v.Reason)
	}
}

func TestScorerHistoryPreference(t *testing.T) {
	lastWed := testNow.AddDate(0, 0, -7)
	history := []entity.CalendarEvent{
		event("1", at(lastWed, 10, 0), at(lastWed, 10, 30)),
		event("2", at(lastWed, 10, 30), at(lastWed, 11, 0)),
		event("3", at(lastWed, 14, 0), at(lastWed, 15, 0)),
		event("4", at(lastWed, 16, 0), at(lastWed, 17, 0)),
	}
	scorer := NewScorer()
	profile := Profile{History: history}

	busyHour := scorer.IsAvailable(slotAt(testNow, 10, 0, time.Hour), nil, profile)
	assert.InDelta(t, 0.5, busyHour.Confidence, 0.001)
	assert.Equal(t, ReasonAvailable, busyHour.Reason)

	quietHour := scorer.IsAvailable(slotAt(testNow, 12, 0, time.Hour), nil, profile)
	assert.InDelta(t, 1.0, quietHour.Confidence, 0.001)

	crowded := append(history, event("5", at(lastWed, 10, 0), at(lastWed, 10, 15)), event("6", at(lastWed, 10, 15), at(lastWed, 10, 30)))
	floored := scorer.IsAvailable(slotAt(testNow, 10, 0, time.Hour), nil, Profile{History: crowded})
	assert.InDelta(t, 0.33, floored.Confidence, 0.001)
}
