package dto

import (
	"time"

	"smartschedule/modules/matching/engine"
	"smartschedule/modules/matching/entity"
	"smartschedule/modules/matching/service"
)

// ===================== Request DTOs =====================

// ParticipantRequest omits events or availability to have them loaded from
// the connected calendars and the availability store.
type ParticipantRequest struct {
	ID           string                     `json:"id"`
	Events       []entity.CalendarEvent    `json:"events,omitempty"`
	Availability entity.WeeklyAvailability `json:"availability,omitempty"`
}

// FindSlotsRequest for the mutual availability search
type FindSlotsRequest struct {
	Participants  []ParticipantRequest `json:"participants"`
	Text          string               `json:"text"`
	Constraints   *entity.Constraints  `json:"constraints"`
	Policy        engine.Policy        `json:"policy"`
	HorizonStart  *time.Time           `json:"horizon_start"`
	HorizonDays   int                  `json:"horizon_days"`
	MaxResults    int                  `json:"max_results"`
	AllowWeekends bool                 `json:"allow_weekends"`
}

func (r *FindSlotsRequest) ToInput() service.FindSlotsInput {
	in := service.FindSlotsInput{
		Participants:  make([]service.ParticipantInput, 0, len(r.Participants)),
		Text:          r.Text,
		Constraints:   r.Constraints,
		Policy:        r.Policy,
		HorizonDays:   r.HorizonDays,
		MaxResults:    r.MaxResults,
		AllowWeekends: r.AllowWeekends,
	}
	if r.HorizonStart != nil {
		in.HorizonStart = *r.HorizonStart
	}
	for _, p := range r.Participants {
		in.Participants = append(in.Participants, service.ParticipantInput{
			ID:           p.ID,
			Events:       p.Events,
			Availability: p.Availability,
		})
	}
	return in
}

// FallbackSlotsRequest searches declared schedules only
type FallbackSlotsRequest struct {
	Availabilities []entity.WeeklyAvailability `json:"availabilities"`
	UserIDs        []string                    `json:"user_ids"`
	Text           string                      `json:"text"`
	Constraints    *entity.Constraints         `json:"constraints"`
	HorizonStart   *time.Time                  `json:"horizon_start"`
	HorizonDays    int                         `json:"horizon_days"`
}

func (r *FallbackSlotsRequest) ToInput() service.FallbackInput {
	in := service.FallbackInput{
		Availabilities: r.Availabilities,
		UserIDs:        r.UserIDs,
		Text:           r.Text,
		Constraints:    r.Constraints,
		HorizonDays:    r.HorizonDays,
	}
	if r.HorizonStart != nil {
		in.HorizonStart = *r.HorizonStart
	}
	return in
}

type ParseConstraintsRequest struct {
	Text string `json:"text"`
}

// AnalyzeRequest infers working hours from inline events, or from the
// user's calendars when events is omitted.
type AnalyzeRequest struct {
	UserID       string                 `json:"user_id"`
	Events       []entity.CalendarEvent `json:"events"`
	LookbackDays int                    `json:"lookback_days"`
}

func (r *AnalyzeRequest) ToInput() service.AnalyzeInput {
	return service.AnalyzeInput{
		UserID:       r.UserID,
		Events:       r.Events,
		LookbackDays: r.LookbackDays,
	}
}
