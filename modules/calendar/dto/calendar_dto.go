package dto

import (
	matching "smartschedule/modules/matching/entity"
)

// ========== Calendar Connection DTOs ==========

// CalendarConnectionResponse represents a calendar connection
type CalendarConnectionResponse struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	CalendarEmail string `json:"calendar_email"`
	IsActive      bool   `json:"is_active"`
	ConnectedAt   string `json:"connected_at"`
}

// CalendarConnectionListResponse represents list of connections
type CalendarConnectionListResponse struct {
	Connections []CalendarConnectionResponse `json:"connections"`
}

// ========== Busy DTOs ==========

// TimeSlot represents a time period
type TimeSlot struct {
	Start string `json:"start"` // RFC3339
	End   string `json:"end"`   // RFC3339
}

// UserBusyResponse lists a user's merged busy intervals
type UserBusyResponse struct {
	UserID string     `json:"user_id"`
	Busy   []TimeSlot `json:"busy"`
}

// ========== Availability DTOs ==========

// AvailabilityRequest replaces the caller's declared weekly windows
type AvailabilityRequest struct {
	Availability matching.WeeklyAvailability `json:"availability"`
}

type AvailabilityResponse struct {
	UserID       string                      `json:"user_id"`
	Availability matching.WeeklyAvailability `json:"availability"`
	Declared     bool                        `json:"declared"`
}
