package entity

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// WeeklyAvailability lists declared windows per weekday. A missing or empty
// day means unavailable that day.
type WeeklyAvailability map[time.Weekday][]TimeWindow

// BusinessWeek returns Monday to Friday 09:00-17:00.
func BusinessWeek() WeeklyAvailability {
	wa := make(WeeklyAvailability, 5)
	for _, d := range Weekdays[:5] {
		wa[d] = []TimeWindow{BusinessHoursWindow}
	}
	return wa
}

func (wa WeeklyAvailability) On(d time.Weekday) []TimeWindow {
	return wa[d]
}

// HasWeekend reports whether any Saturday or Sunday window is declared.
func (wa WeeklyAvailability) HasWeekend() bool {
	return len(wa[time.Saturday]) > 0 || len(wa[time.Sunday]) > 0
}

// Validate checks each day is sorted by start and non-overlapping.
func (wa WeeklyAvailability) Validate() error {
	for d, windows := range wa {
		for i, w := range windows {
			if err := w.Validate(); err != nil {
				return fmt.Errorf("%s: %w", WeekdayName(d), err)
			}
			if i > 0 && w.Start < windows[i-1].End {
				return fmt.Errorf("%s: window %s overlaps or precedes %s", WeekdayName(d), w, windows[i-1])
			}
		}
	}
	return nil
}

// Normalize returns a copy with every day sorted and overlapping or touching
// windows merged. Invalid windows are dropped.
func (wa WeeklyAvailability) Normalize() WeeklyAvailability {
	out := make(WeeklyAvailability, len(wa))
	for d, windows := range wa {
		valid := make([]TimeWindow, 0, len(windows))
		for _, w := range windows {
			if w.Validate() == nil {
				valid = append(valid, w)
			}
		}
		if len(valid) == 0 {
			continue
		}
		slices.SortFunc(valid, func(a, b TimeWindow) int { return int(a.Start - b.Start) })

		merged := []TimeWindow{valid[0]}
		for _, w := range valid[1:] {
			last := &merged[len(merged)-1]
			if w.Start <= last.End {
				last.End = max(last.End, w.End)
				continue
			}
			merged = append(merged, w)
		}
		out[d] = merged
	}
	return out
}

// Intersect returns, per weekday, the pieces common to wa and o.
func (wa WeeklyAvailability) Intersect(o WeeklyAvailability) WeeklyAvailability {
	out := make(WeeklyAvailability)
	for _, d := range Weekdays {
		var pieces []TimeWindow
		for _, a := range wa[d] {
			for _, b := range o[d] {
				if w, ok := a.Intersect(b); ok {
					pieces = append(pieces, w)
				}
			}
		}
		if len(pieces) > 0 {
			out[d] = pieces
		}
	}
	return out.Normalize()
}

// Narrow clips every window to w, dropping days that end up empty.
func (wa WeeklyAvailability) Narrow(w TimeWindow) WeeklyAvailability {
	return wa.Intersect(WeeklyAvailability{
		time.Monday: {w}, time.Tuesday: {w}, time.Wednesday: {w}, time.Thursday: {w},
		time.Friday: {w}, time.Saturday: {w}, time.Sunday: {w},
	})
}

func (wa WeeklyAvailability) MarshalJSON() ([]byte, error) {
	named := make(map[string][]TimeWindow, len(wa))
	for d, windows := range wa {
		if windows == nil {
			windows = []TimeWindow{}
		}
		named[WeekdayName(d)] = windows
	}
	return json.Marshal(named)
}

func (wa *WeeklyAvailability) UnmarshalJSON(data []byte) error {
	var named map[string][]TimeWindow
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	out := make(WeeklyAvailability, len(named))
	for name, windows := range named {
		d, ok := ParseWeekday(name)
		if !ok {
			return fmt.Errorf("unknown weekday %q", name)
		}
		out[d] = windows
	}
	*wa = out
	return nil
}
