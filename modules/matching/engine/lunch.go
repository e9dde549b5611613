package engine

import (
	"math"
	"time"

	"smartschedule/modules/matching/entity"
)

const (
	lunchMinGap = 30 * time.Minute
	lunchMaxGap = 120 * time.Minute
	// lunchThreshold is the confidence above which the inferred window blocks slots.
	lunchThreshold = 0.3
)

var lunchSearchWindow = entity.TimeWindow{
	Start: entity.NewClockTime(11, 30),
	End:   entity.NewClockTime(14, 0),
}

// inferLunch looks for same-day gaps of 30 to 120 minutes lying inside
// 11:30-14:00. Confidence is start consistency times the share of observed
// days that had such a gap.
func inferLunch(days []dayEvents) entity.LunchWindowPattern {
	var (
		starts    []float64
		ends      []float64
		lunchDays int
	)
	for _, day := range days {
		found := false
		for _, g := range freeGaps(day.events) {
			if g.length() < lunchMinGap || g.length() > lunchMaxGap || !entity.SameDay(g.start, g.end) {
				continue
			}
			if !lunchSearchWindow.Contains(entity.ClockOf(g.start), entity.ClockOf(g.end)) {
				continue
			}
			starts = append(starts, float64(entity.ClockOf(g.start)))
			ends = append(ends, float64(entity.ClockOf(g.end)))
			found = true
		}
		if found {
			lunchDays++
		}
	}
	if len(starts) == 0 {
		return entity.DefaultLunchPattern()
	}

	consistency := math.Max(0, 1-stdDev(starts)/60)
	frequency := float64(lunchDays) / float64(len(days))
	confidence := round2(consistency * frequency)

	return entity.LunchWindowPattern{
		Start:      entity.ClockTime(math.Round(mean(starts))),
		End:        entity.ClockTime(math.Round(mean(ends))),
		Enabled:    confidence > lunchThreshold,
		Confidence: confidence,
		Inferred:   true,
	}
}

type gap struct {
	start, end time.Time
}

func (g gap) length() time.Duration { return g.end.Sub(g.start) }

// freeGaps returns the positive gaps between busy stretches of start-sorted events.
func freeGaps(events []entity.CalendarEvent) []gap {
	if len(events) < 2 {
		return nil
	}
	var out []gap
	busyUntil := events[0].End
	for _, e := range events[1:] {
		if e.Start.After(busyUntil) {
			out = append(out, gap{start: busyUntil, end: e.Start})
		}
		if e.End.After(busyUntil) {
			busyUntil = e.End
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the population standard deviation.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(xs)))
}
