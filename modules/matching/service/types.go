package service

import (
	"context"
	"time"

	"smartschedule/modules/matching/engine"
	"smartschedule/modules/matching/entity"
)

// ParticipantInput describes one attendee. Nil Events or Availability are
// loaded from the configured sources; a non-nil (even empty) value is used as is.
type ParticipantInput struct {
	ID           string
	Events       []entity.CalendarEvent
	Availability entity.WeeklyAvailability
}

type FindSlotsInput struct {
	Participants  []ParticipantInput
	Text          string
	Constraints   *entity.Constraints
	Policy        engine.Policy
	HorizonStart  time.Time
	HorizonDays   int
	MaxResults    int
	AllowWeekends bool
}

// DegradedParticipant records a participant matched on defaults because a fetch failed.
type DegradedParticipant struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type FindSlotsResult struct {
	RequestID            string                `json:"request_id"`
	Constraints          entity.Constraints    `json:"constraints"`
	Policy               engine.Policy         `json:"policy"`
	Resolution           engine.Resolution     `json:"resolution"`
	DegradedParticipants []DegradedParticipant `json:"degraded_participants"`
	Message              string                `json:"message,omitempty"`
}

type FallbackInput struct {
	// Availabilities are inline schedules; UserIDs are looked up in the availability source.
	Availabilities []entity.WeeklyAvailability
	UserIDs        []string
	Text           string
	Constraints    *entity.Constraints
	HorizonStart   time.Time
	HorizonDays    int
}

type FallbackResult struct {
	Constraints entity.Constraints    `json:"constraints"`
	Slots       []engine.BookableSlot `json:"slots"`
	Message     string                `json:"message,omitempty"`
}

type AnalyzeInput struct {
	UserID       string
	Events       []entity.CalendarEvent
	LookbackDays int
}

// PatternProvider caches working-hours analyses between requests.
type PatternProvider interface {
	Lookup(ctx context.Context, userID string) (*entity.WorkingHoursAnalysis, bool)
	Store(ctx context.Context, userID string, analysis entity.WorkingHoursAnalysis)
}

const MessageNoSlots = "no slots found"
