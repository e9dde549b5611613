package entity

import (
	"time"

	"smartschedule/core/entity"
	matching "smartschedule/modules/matching/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CalendarEventRecord is a busy interval persisted in calendar_events.
type CalendarEventRecord struct {
	entity.BaseEntity
	UserID     uuid.UUID      `db:"user_id"`
	ExternalID string         `db:"external_id"`
	Title      string         `db:"title"`
	StartsAt   time.Time      `db:"starts_at"`
	EndsAt     time.Time      `db:"ends_at"`
	Attendees  pq.StringArray `db:"attendees"`
	Category   string         `db:"category"`
	Source     string         `db:"source"`
}

func (r CalendarEventRecord) ToEvent() matching.CalendarEvent {
	id := r.ExternalID
	if id == "" {
		id = r.ID.String()
	}
	return matching.CalendarEvent{
		ID:        id,
		Title:     r.Title,
		Start:     r.StartsAt,
		End:       r.EndsAt,
		Attendees: []string(r.Attendees),
		Category:  matching.EventCategory(r.Category),
		Source:    r.Source,
	}
}

// AvailabilityRecord is one declared window in weekly_availability.
type AvailabilityRecord struct {
	UserID      uuid.UUID `db:"user_id"`
	Weekday     int       `db:"weekday"`
	StartMinute int       `db:"start_minute"`
	EndMinute   int       `db:"end_minute"`
}

// ToWeeklyAvailability groups rows into a normalized weekly schedule.
func ToWeeklyAvailability(rows []AvailabilityRecord) matching.WeeklyAvailability {
	wa := make(matching.WeeklyAvailability)
	for _, r := range rows {
		if r.Weekday < 0 || r.Weekday > 6 {
			continue
		}
		d := time.Weekday(r.Weekday)
		wa[d] = append(wa[d], matching.TimeWindow{
			Start: matching.ClockTime(r.StartMinute),
			End:   matching.ClockTime(r.EndMinute),
		})
	}
	return wa.Normalize()
}

// FromWeeklyAvailability flattens a schedule into rows for userID.
func FromWeeklyAvailability(userID uuid.UUID, wa matching.WeeklyAvailability) []AvailabilityRecord {
	var rows []AvailabilityRecord
	for _, d := range matching.Weekdays {
		for _, w := range wa[d] {
			rows = append(rows, AvailabilityRecord{
				UserID:      userID,
				Weekday:     int(d),
				StartMinute: int(w.Start),
				EndMinute:   int(w.End),
			})
		}
	}
	return rows
}
