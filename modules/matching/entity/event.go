package entity

import "time"

type EventCategory string

const (
	CategoryMeeting EventCategory = "meeting"
	CategoryFocus   EventCategory = "focus"
	CategoryBreak   EventCategory = "break"
	CategoryOther   EventCategory = "other"
)

// CalendarEvent is a busy interval supplied by a calendar source.
type CalendarEvent struct {
	ID        string        `json:"id"`
	Title     string        `json:"title,omitempty"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Attendees []string      `json:"attendees,omitempty"`
	Category  EventCategory `json:"category,omitempty"`
	Source    string        `json:"source,omitempty"`
}

// Valid reports whether the event has a positive length.
func (e CalendarEvent) Valid() bool {
	return e.End.After(e.Start)
}

func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps uses the half-open rule: touching intervals do not overlap.
func (e CalendarEvent) Overlaps(start, end time.Time) bool {
	return start.Before(e.End) && end.After(e.Start)
}
