package entity

import "time"

// DayPattern is the inferred working interval for one weekday.
type DayPattern struct {
	Weekday       time.Weekday `json:"-"`
	Start         ClockTime    `json:"start"`
	End           ClockTime    `json:"end"`
	Enabled       bool         `json:"enabled"`
	Confidence    float64      `json:"confidence"`
	MeetingCount  int          `json:"meeting_count"`
	AvgGapMinutes float64      `json:"avg_gap_minutes"`
}

// Window returns the day's working interval.
func (p DayPattern) Window() TimeWindow {
	return TimeWindow{Start: p.Start, End: p.End}
}

// WorkingHoursPattern is indexed by time.Weekday (Sunday = 0).
type WorkingHoursPattern struct {
	Days [7]DayPattern `json:"days"`
}

// Day returns the pattern for d. Weekday is not serialized, so it is set here.
func (p *WorkingHoursPattern) Day(d time.Weekday) DayPattern {
	dp := p.Days[d]
	dp.Weekday = d
	return dp
}

// DefaultDayPattern is Mon-Fri 09:00-17:00 enabled, weekends disabled, all at zero confidence.
func DefaultDayPattern(d time.Weekday) DayPattern {
	return DayPattern{
		Weekday: d,
		Start:   BusinessHoursWindow.Start,
		End:     BusinessHoursWindow.End,
		Enabled: !IsWeekend(d),
	}
}

func DefaultWorkingHoursPattern() WorkingHoursPattern {
	var p WorkingHoursPattern
	for d := time.Sunday; d <= time.Saturday; d++ {
		p.Days[d] = DefaultDayPattern(d)
	}
	return p
}

type LunchWindowPattern struct {
	Start      ClockTime `json:"start"`
	End        ClockTime `json:"end"`
	Enabled    bool      `json:"enabled"`
	Confidence float64   `json:"confidence"`
	Inferred   bool      `json:"inferred"`
}

func (l LunchWindowPattern) Window() TimeWindow {
	return TimeWindow{Start: l.Start, End: l.End}
}

// DefaultLunchConfidence is reported when no lunch gap was observed.
const DefaultLunchConfidence = 0.1

func DefaultLunchPattern() LunchWindowPattern {
	return LunchWindowPattern{
		Start:      DefaultLunchWindow.Start,
		End:        DefaultLunchWindow.End,
		Confidence: DefaultLunchConfidence,
	}
}

// WorkingHoursAnalysis is the inferred profile for one user.
type WorkingHoursAnalysis struct {
	Pattern            WorkingHoursPattern `json:"pattern"`
	Lunch              LunchWindowPattern  `json:"lunch"`
	OverallConfidence  float64             `json:"overall_confidence"`
	TotalBookings      int                 `json:"total_bookings"`
	UniqueDays         int                 `json:"unique_days"`
	AvgMeetingsPerDay  float64             `json:"avg_meetings_per_day"`
	AvgDurationMinutes float64             `json:"avg_duration_minutes"`
	LookbackDays       int                 `json:"lookback_days"`
	Defaulted          bool                `json:"defaulted"`
	AnalyzedAt         time.Time           `json:"analyzed_at"`
}

// DefaultAnalysis is substituted when a user has no history or the fetch failed.
func DefaultAnalysis(lookbackDays int) WorkingHoursAnalysis {
	return WorkingHoursAnalysis{
		Pattern:      DefaultWorkingHoursPattern(),
		Lunch:        DefaultLunchPattern(),
		LookbackDays: lookbackDays,
		Defaulted:    true,
	}
}
