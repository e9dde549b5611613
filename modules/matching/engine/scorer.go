package engine

import (
	"math"
	"time"

	"smartschedule/modules/matching/entity"
)

const minHistoryConfidence = 0.3

// Reasons attached to a single-user verdict.
const (
	ReasonAvailable      = "available"
	ReasonConflict       = "conflicts with an existing event"
	ReasonDayDisabled    = "outside working days"
	ReasonOutsideHours   = "outside working hours"
	ReasonLunch          = "overlaps lunch"
	ReasonNoHistoryGuess = "available, no history for this weekday"
)

// Profile is what the scorer knows about one user beyond their busy events.
type Profile struct {
	Analysis *entity.WorkingHoursAnalysis
	// Availability, when set, replaces the inferred working interval.
	Availability entity.WeeklyAvailability
	// History is past events used for the hour-of-day preference.
	History []entity.CalendarEvent
}

// Scorer decides whether one user can take one slot.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// IsAvailable runs the checks in order and returns on the first failure:
// event overlap, disabled weekday, working interval containment, lunch.
func (s *Scorer) IsAvailable(slot entity.CandidateSlot, events []entity.CalendarEvent, profile Profile) entity.Verdict {
	for _, e := range events {
		if e.Valid() && e.Overlaps(slot.Start, slot.End) {
			return entity.Verdict{Reason: ReasonConflict}
		}
	}

	weekday := slot.Start.Weekday()
	start := entity.ClockOf(slot.Start)
	end := start.Add(slot.Duration())

	if profile.Availability != nil {
		if !containedInAny(profile.Availability.On(weekday), start, end) {
			if len(profile.Availability.On(weekday)) == 0 {
				return entity.Verdict{Reason: ReasonDayDisabled}
			}
			return entity.Verdict{Reason: ReasonOutsideHours}
		}
	} else if profile.Analysis != nil {
		day := profile.Analysis.Pattern.Day(weekday)
		if !day.Enabled {
			return entity.Verdict{Reason: ReasonDayDisabled}
		}
		if !day.Window().Contains(start, end) {
			return entity.Verdict{Reason: ReasonOutsideHours}
		}
	}

	if profile.Analysis != nil {
		lunch := profile.Analysis.Lunch
		if lunch.Enabled && lunch.Window().Overlaps(start, end) {
			return entity.Verdict{Reason: ReasonLunch}
		}
	}

	confidence, fromHistory := hourPreference(slot.Start, profile.History)
	reason := ReasonAvailable
	if !fromHistory {
		reason = ReasonNoHistoryGuess
	}
	return entity.Verdict{Available: true, Confidence: confidence, Reason: reason}
}

func containedInAny(windows []entity.TimeWindow, start, end entity.ClockTime) bool {
	for _, w := range windows {
		if w.Contains(start, end) {
			return true
		}
	}
	return false
}

// hourPreference favours hours the user rarely books on that weekday. With no
// history on the weekday it falls back to a fixed time-of-day table.
func hourPreference(start time.Time, history []entity.CalendarEvent) (float64, bool) {
	weekday := start.Weekday()
	hour := start.Hour()

	total, atHour := 0, 0
	for _, e := range history {
		local := e.Start.In(start.Location())
		if !e.Valid() || local.Weekday() != weekday {
			continue
		}
		total++
		if local.Hour() == hour {
			atHour++
		}
	}
	if total == 0 {
		return hourHeuristic(hour), false
	}
	return round2(math.Max(minHistoryConfidence, 1-float64(atHour)/float64(total))), true
}

func hourHeuristic(hour int) float64 {
	switch {
	case hour == 10:
		return 0.8
	case hour == 14:
		return 0.7
	case hour >= 9 && hour <= 16:
		return 0.6
	}
	return 0.3
}
