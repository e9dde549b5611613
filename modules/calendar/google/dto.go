package google

import (
	"strings"
	"time"

	matching "smartschedule/modules/matching/entity"
)

type eventsResponse struct {
	Items         []calendarEvent `json:"items"`
	NextPageToken string          `json:"nextPageToken"`
}

type calendarEvent struct {
	ID           string     `json:"id"`
	Summary      string     `json:"summary"`
	Status       string     `json:"status"`
	Transparency string     `json:"transparency"`
	EventType    string     `json:"eventType"`
	Start        eventTime  `json:"start"`
	End          eventTime  `json:"end"`
	Attendees    []attendee `json:"attendees"`
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

type attendee struct {
	Email string `json:"email"`
}

func (t eventTime) parse() (time.Time, bool) {
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		return ts, err == nil
	}
	if t.Date != "" {
		loc := time.UTC
		if t.TimeZone != "" {
			if l, err := time.LoadLocation(t.TimeZone); err == nil {
				loc = l
			}
		}
		ts, err := time.ParseInLocation(time.DateOnly, t.Date, loc)
		return ts, err == nil
	}
	return time.Time{}, false
}

// toEvent drops cancelled and free (transparent) entries.
func (e calendarEvent) toEvent(source string) (matching.CalendarEvent, bool) {
	if e.Status == "cancelled" || e.Transparency == "transparent" {
		return matching.CalendarEvent{}, false
	}
	start, ok := e.Start.parse()
	if !ok {
		return matching.CalendarEvent{}, false
	}
	end, ok := e.End.parse()
	if !ok || !end.After(start) {
		return matching.CalendarEvent{}, false
	}

	out := matching.CalendarEvent{
		ID:       e.ID,
		Title:    e.Summary,
		Start:    start,
		End:      end,
		Category: category(e),
		Source:   source,
	}
	for _, a := range e.Attendees {
		out.Attendees = append(out.Attendees, strings.ToLower(a.Email))
	}
	return out, true
}

func category(e calendarEvent) matching.EventCategory {
	switch e.EventType {
	case "focusTime":
		return matching.CategoryFocus
	case "outOfOffice":
		return matching.CategoryOther
	}
	if len(e.Attendees) > 0 {
		return matching.CategoryMeeting
	}
	return matching.CategoryOther
}
