package entity

import (
	"fmt"
	"time"
)

// TimeWindow is a half-open local clock range [Start, End).
type TimeWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

func NewTimeWindow(start, end string) (TimeWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeWindow{}, err
	}
	w := TimeWindow{Start: s, End: e}
	if err := w.Validate(); err != nil {
		return TimeWindow{}, err
	}
	return w, nil
}

func MustTimeWindow(start, end string) TimeWindow {
	w, err := NewTimeWindow(start, end)
	if err != nil {
		panic(err)
	}
	return w
}

func (w TimeWindow) Validate() error {
	if !w.Start.Valid() || !w.End.Valid() {
		return fmt.Errorf("window %s-%s: out of range", w.Start, w.End)
	}
	if w.Start >= w.End {
		return fmt.Errorf("window %s-%s: start must be before end", w.Start, w.End)
	}
	return nil
}

func (w TimeWindow) Minutes() int {
	return int(w.End - w.Start)
}

func (w TimeWindow) Length() time.Duration {
	return time.Duration(w.Minutes()) * time.Minute
}

// Contains reports whether [start, end) lies fully inside w.
func (w TimeWindow) Contains(start, end ClockTime) bool {
	return start >= w.Start && end <= w.End
}

// Overlaps reports whether [start, end) shares any time with w.
func (w TimeWindow) Overlaps(start, end ClockTime) bool {
	return start < w.End && end > w.Start
}

// Intersect returns the overlap of w and o; ok is false when they are disjoint.
func (w TimeWindow) Intersect(o TimeWindow) (TimeWindow, bool) {
	start := max(w.Start, o.Start)
	end := min(w.End, o.End)
	if start >= end {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: start, End: end}, true
}

func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// TimeOfDay is a coarse preference bucket.
type TimeOfDay string

const (
	TimeOfDayAny       TimeOfDay = ""
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

var (
	MorningWindow       = TimeWindow{Start: NewClockTime(8, 0), End: NewClockTime(12, 0)}
	AfternoonWindow     = TimeWindow{Start: NewClockTime(12, 0), End: NewClockTime(17, 0)}
	EveningWindow       = TimeWindow{Start: NewClockTime(17, 0), End: NewClockTime(22, 0)}
	BusinessHoursWindow = TimeWindow{Start: NewClockTime(9, 0), End: NewClockTime(17, 0)}
	DefaultLunchWindow  = TimeWindow{Start: NewClockTime(12, 0), End: NewClockTime(13, 0)}
)

// Window returns the bucket's clock range; ok is false for TimeOfDayAny or unknown values.
func (t TimeOfDay) Window() (TimeWindow, bool) {
	switch t {
	case TimeOfDayMorning:
		return MorningWindow, true
	case TimeOfDayAfternoon:
		return AfternoonWindow, true
	case TimeOfDayEvening:
		return EveningWindow, true
	}
	return TimeWindow{}, false
}

func (t TimeOfDay) Valid() bool {
	_, ok := t.Window()
	return ok || t == TimeOfDayAny
}
