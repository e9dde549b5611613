package service

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"smartschedule/core/errors"
	"smartschedule/core/logger"
	"smartschedule/modules/calendar/dto"
	"smartschedule/modules/calendar/entity"
	"smartschedule/modules/calendar/repository"
	"smartschedule/modules/calendar/source"
	matching "smartschedule/modules/matching/entity"

	"github.com/google/uuid"
)

const maxBusyRange = 62 * 24 * time.Hour

type CalendarService interface {
	GetConnections(ctx context.Context, userID uuid.UUID) ([]dto.CalendarConnectionResponse, error)
	GetAvailability(ctx context.Context, userID uuid.UUID) (*dto.AvailabilityResponse, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, wa matching.WeeklyAvailability) (*dto.AvailabilityResponse, error)
	GetBusy(ctx context.Context, userID uuid.UUID, startTime, endTime time.Time) (*dto.UserBusyResponse, error)
}

type calendarService struct {
	repo   repository.CalendarRepository
	events source.EventSource
}

// NewCalendarService creates the service; events is usually the composite of
// every configured calendar source.
func NewCalendarService(repo repository.CalendarRepository, events source.EventSource) CalendarService {
	if events == nil {
		events = source.NoEvents{}
	}
	return &calendarService{
		repo:   repo,
		events: events,
	}
}

// GetConnections returns all calendar connections for a user
func (s *calendarService) GetConnections(ctx context.Context, userID uuid.UUID) ([]dto.CalendarConnectionResponse, error) {
	connections, err := s.repo.GetConnectionsByUserID(ctx, userID)
	if err != nil {
		logger.Error("CalendarService:GetConnections:Error", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get connections", err)
	}

	result := make([]dto.CalendarConnectionResponse, 0, len(connections))
	for _, conn := range connections {
		result = append(result, toConnectionResponse(conn))
	}
	return result, nil
}

func toConnectionResponse(conn entity.CalendarConnection) dto.CalendarConnectionResponse {
	return dto.CalendarConnectionResponse{
		ID:            conn.ID.String(),
		Provider:      conn.Provider,
		CalendarEmail: conn.CalendarEmail,
		IsActive:      conn.IsActive,
		ConnectedAt:   conn.CreatedAt.Format(time.RFC3339),
	}
}

func (s *calendarService) GetAvailability(ctx context.Context, userID uuid.UUID) (*dto.AvailabilityResponse, error) {
	rows, err := s.repo.GetAvailability(ctx, userID)
	if err != nil {
		logger.Error("CalendarService:GetAvailability:Error", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get availability", err)
	}

	resp := &dto.AvailabilityResponse{UserID: userID.String(), Declared: len(rows) > 0}
	if resp.Declared {
		resp.Availability = entity.ToWeeklyAvailability(rows)
	} else {
		resp.Availability = matching.WeeklyAvailability{}
	}
	return resp, nil
}

// SetAvailability validates and replaces the user's declared schedule. An
// empty schedule clears it.
func (s *calendarService) SetAvailability(ctx context.Context, userID uuid.UUID, wa matching.WeeklyAvailability) (*dto.AvailabilityResponse, error) {
	if err := wa.Validate(); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}
	normalized := wa.Normalize()

	if err := s.repo.ReplaceAvailability(ctx, userID, entity.FromWeeklyAvailability(userID, normalized)); err != nil {
		logger.Error("CalendarService:SetAvailability:Error", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save availability", err)
	}

	logger.Info("CalendarService:SetAvailability", "user_id", userID, "days", len(normalized))
	return &dto.AvailabilityResponse{
		UserID:       userID.String(),
		Availability: normalized,
		Declared:     len(normalized) > 0,
	}, nil
}

// GetBusy merges overlapping events from every source into busy intervals.
func (s *calendarService) GetBusy(ctx context.Context, userID uuid.UUID, startTime, endTime time.Time) (*dto.UserBusyResponse, error) {
	if !endTime.After(startTime) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end must be after start", nil)
	}
	if endTime.Sub(startTime) > maxBusyRange {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "range must not exceed 62 days", nil)
	}

	events, err := s.events.ListEvents(ctx, userID.String(), startTime, endTime)
	if stderrors.Is(err, source.ErrNotConnected) {
		events, err = nil, nil
	}
	if err != nil {
		logger.Error("CalendarService:GetBusy:ListEvents:Error", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrUpstreamFetch, "Failed to load calendar events", err)
	}

	return &dto.UserBusyResponse{
		UserID: userID.String(),
		Busy:   mergeBusy(events, startTime, endTime),
	}, nil
}

// mergeBusy clips events to [from, to) and coalesces overlapping or touching ones.
func mergeBusy(events []matching.CalendarEvent, from, to time.Time) []dto.TimeSlot {
	type span struct{ start, end time.Time }
	spans := make([]span, 0, len(events))
	for _, e := range events {
		if !e.Valid() || !e.Overlaps(from, to) {
			continue
		}
		start, end := e.Start, e.End
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		spans = append(spans, span{start, end})
	}
	slices.SortFunc(spans, func(a, b span) int { return a.start.Compare(b.start) })

	var merged []span
	for _, sp := range spans {
		if n := len(merged); n > 0 && !sp.start.After(merged[n-1].end) {
			if sp.end.After(merged[n-1].end) {
				merged[n-1].end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}

	out := make([]dto.TimeSlot, 0, len(merged))
	for _, sp := range merged {
		out = append(out, dto.TimeSlot{
			Start: sp.start.UTC().Format(time.RFC3339),
			End:   sp.end.UTC().Format(time.RFC3339),
		})
	}
	return out
}
