package entity

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Weekdays in Monday-first order, which is how lists are presented.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

var weekdayAliases = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts full and common abbreviated English names, any case.
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

func IsWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

// mondayIndex maps Monday..Sunday to 0..6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekdayList is a set of weekdays encoded as lowercase names.
type WeekdayList []time.Weekday

func (l WeekdayList) Contains(d time.Weekday) bool {
	return slices.Contains(l, d)
}

// Normalize de-duplicates and sorts Monday first.
func (l WeekdayList) Normalize() WeekdayList {
	if len(l) == 0 {
		return nil
	}
	out := slices.Clone(l)
	slices.SortFunc(out, func(a, b time.Weekday) int {
		return mondayIndex(a) - mondayIndex(b)
	})
	return slices.Compact(out)
}

func (l WeekdayList) MarshalJSON() ([]byte, error) {
	names := make([]string, len(l))
	for i, d := range l {
		names[i] = WeekdayName(d)
	}
	return json.Marshal(names)
}

func (l *WeekdayList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	out := make(WeekdayList, 0, len(names))
	for _, n := range names {
		d, ok := ParseWeekday(n)
		if !ok {
			return fmt.Errorf("unknown weekday %q", n)
		}
		out = append(out, d)
	}
	*l = out
	return nil
}
