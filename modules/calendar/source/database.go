package source

import (
	"context"
	"fmt"
	"time"

	calendarEntity "smartschedule/modules/calendar/entity"
	"smartschedule/modules/calendar/repository"
	"smartschedule/modules/matching/entity"

	"github.com/google/uuid"
)

// Database serves events and declared availability stored in PostgreSQL.
type Database struct {
	repo repository.CalendarRepository
}

func NewDatabase(repo repository.CalendarRepository) *Database {
	return &Database{repo: repo}
}

func (d *Database) Name() string { return "database" }

func (d *Database) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]entity.CalendarEvent, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("user id %q: %w", userID, err)
	}
	records, err := d.repo.ListEvents(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	events := make([]entity.CalendarEvent, 0, len(records))
	for _, r := range records {
		events = append(events, r.ToEvent())
	}
	return events, nil
}

func (d *Database) GetAvailability(ctx context.Context, userID string) (entity.WeeklyAvailability, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("user id %q: %w", userID, err)
	}
	rows, err := d.repo.GetAvailability(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return calendarEntity.ToWeeklyAvailability(rows), nil
}
