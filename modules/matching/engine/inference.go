package engine

import (
	"context"
	"math"
	"slices"
	"time"

	"smartschedule/core/logger"
	"smartschedule/modules/matching/entity"
)

const (
	spanPadding             = 30 * time.Minute
	fullConfidenceMeetings  = 10.0
	fullConfidenceDensity   = 2.0
	fullConfidenceBookings  = 50.0
	fullConfidenceDays      = 30.0
	fullConfidenceDailyRate = 3.0
)

// EventFetcher loads a user's events for [from, to).
type EventFetcher func(ctx context.Context, from, to time.Time) ([]entity.CalendarEvent, error)

// Analyzer infers working hours and lunch habits from past events.
type Analyzer struct {
	opts Options
}

func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts.withDefaults()}
}

// AnalyzeSource fetches the lookback window and analyzes it. A fetch error is
// logged and answered with the default analysis.
func (a *Analyzer) AnalyzeSource(ctx context.Context, fetch EventFetcher, lookbackDays int) entity.WorkingHoursAnalysis {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	now := a.opts.now()
	events, err := fetch(ctx, now.AddDate(0, 0, -lookbackDays), now)
	if err != nil {
		logger.Warn("Analyzer:AnalyzeSource:Fetch", "error", err, "lookback_days", lookbackDays)
		return a.defaultAnalysis(lookbackDays)
	}
	return a.Analyze(events, lookbackDays)
}

// Analyze derives a WorkingHoursAnalysis from events that started within the
// last lookbackDays. Events with End <= Start are ignored.
func (a *Analyzer) Analyze(events []entity.CalendarEvent, lookbackDays int) entity.WorkingHoursAnalysis {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	history := a.history(events, lookbackDays)
	if len(history) == 0 {
		return a.defaultAnalysis(lookbackDays)
	}

	days := groupByDate(history)

	var (
		pattern   entity.WorkingHoursPattern
		confSum   float64
		confDays  int
		totalMins float64
	)
	for d := time.Sunday; d <= time.Saturday; d++ {
		pattern.Days[d] = analyzeWeekday(d, days)
		if pattern.Days[d].MeetingCount > 0 {
			confSum += pattern.Days[d].Confidence
			confDays++
		}
	}
	for _, e := range history {
		totalMins += e.Duration().Minutes()
	}

	total := len(history)
	uniqueDays := len(days)
	avgPerDay := float64(total) / float64(uniqueDays)
	meanDayConf := 0.0
	if confDays > 0 {
		meanDayConf = confSum / float64(confDays)
	}

	overall := 0.3*math.Min(1, float64(total)/fullConfidenceBookings) +
		0.3*math.Min(1, float64(uniqueDays)/fullConfidenceDays) +
		0.2*math.Min(1, avgPerDay/fullConfidenceDailyRate) +
		0.2*meanDayConf

	return entity.WorkingHoursAnalysis{
		Pattern:            pattern,
		Lunch:              inferLunch(days),
		OverallConfidence:  round2(overall),
		TotalBookings:      total,
		UniqueDays:         uniqueDays,
		AvgMeetingsPerDay:  round2(avgPerDay),
		AvgDurationMinutes: round2(totalMins / float64(total)),
		LookbackDays:       lookbackDays,
		AnalyzedAt:         a.opts.now(),
	}
}

func (a *Analyzer) defaultAnalysis(lookbackDays int) entity.WorkingHoursAnalysis {
	out := entity.DefaultAnalysis(lookbackDays)
	out.AnalyzedAt = a.opts.now()
	return out
}

// history keeps valid events that started in [now-lookback, now), converted
// to the analysis location and sorted by start.
func (a *Analyzer) history(events []entity.CalendarEvent, lookbackDays int) []entity.CalendarEvent {
	now := a.opts.now()
	from := now.AddDate(0, 0, -lookbackDays)

	out := make([]entity.CalendarEvent, 0, len(events))
	for _, e := range events {
		if !e.Valid() || e.Start.Before(from) || !e.Start.Before(now) {
			continue
		}
		e.Start = e.Start.In(a.opts.Location)
		e.End = e.End.In(a.opts.Location)
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(x, y entity.CalendarEvent) int { return x.Start.Compare(y.Start) })
	return out
}

// dayEvents is one calendar date's events, sorted by start.
type dayEvents struct {
	date   time.Time
	events []entity.CalendarEvent
}

func groupByDate(sorted []entity.CalendarEvent) []dayEvents {
	var out []dayEvents
	for _, e := range sorted {
		date := entity.StartOfDay(e.Start)
		if n := len(out); n > 0 && out[n-1].date.Equal(date) {
			out[n-1].events = append(out[n-1].events, e)
			continue
		}
		out = append(out, dayEvents{date: date, events: []entity.CalendarEvent{e}})
	}
	return out
}

func analyzeWeekday(d time.Weekday, days []dayEvents) entity.DayPattern {
	var (
		count    int
		earliest = entity.EndOfDay
		latest   = entity.Midnight
		gapSum   float64
		gapCount int
	)
	for _, day := range days {
		if day.date.Weekday() != d {
			continue
		}
		for _, e := range day.events {
			count++
			earliest = min(earliest, entity.ClockOf(e.Start))
			latest = max(latest, endClock(day.date, e.End))
		}
		for _, g := range freeGaps(day.events) {
			gapSum += g.length().Minutes()
			gapCount++
		}
	}
	if count == 0 {
		return entity.DefaultDayPattern(d)
	}

	spanHours := math.Max(float64(latest-earliest)/60, 1)
	density := float64(count) / spanHours
	confidence := math.Min(1, (float64(count)/fullConfidenceMeetings)*(density/fullConfidenceDensity))

	avgGap := 0.0
	if gapCount > 0 {
		avgGap = gapSum / float64(gapCount)
	}

	return entity.DayPattern{
		Weekday:       d,
		Start:         earliest.Add(-spanPadding).Clamp(),
		End:           latest.Add(spanPadding).Clamp(),
		Enabled:       true,
		Confidence:    round2(confidence),
		MeetingCount:  count,
		AvgGapMinutes: round2(avgGap),
	}
}

// endClock is the wall-clock end on date, 24:00 when the event runs past midnight.
func endClock(date, end time.Time) entity.ClockTime {
	if !entity.SameDay(date, end) {
		return entity.EndOfDay
	}
	return entity.ClockOf(end)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
