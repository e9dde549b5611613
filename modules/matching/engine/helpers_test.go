package engine

import (
	"time"

	"smartschedule/modules/matching/entity"
)

// wednesday 2025-03-05 08:00 UTC
var testNow = time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)

func testOptions(now time.Time) Options {
	return Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func event(id string, start, end time.Time) entity.CalendarEvent {
	return entity.CalendarEvent{ID: id, Start: start, End: end, Category: entity.CategoryMeeting}
}

func windowPtr(start, end string) *entity.TimeWindow {
	w := entity.MustTimeWindow(start, end)
	return &w
}
