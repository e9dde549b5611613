package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smartschedule/core/database"
	"smartschedule/modules/calendar/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CalendarRepository interface {
	// Calendar Connections
	GetConnectionByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarConnection, error)
	GetConnectionsByUserID(ctx context.Context, userID uuid.UUID) ([]entity.CalendarConnection, error)
	UpdateConnectionToken(ctx context.Context, conn *entity.CalendarConnection) error
	ListConnectedUserIDs(ctx context.Context) ([]uuid.UUID, error)

	// Busy events
	ListEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.CalendarEventRecord, error)

	// Declared weekly availability
	GetAvailability(ctx context.Context, userID uuid.UUID) ([]entity.AvailabilityRecord, error)
	ReplaceAvailability(ctx context.Context, userID uuid.UUID, rows []entity.AvailabilityRecord) error
}

type calendarRepository struct {
	db database.IDatabase
}

func NewCalendarRepository(db database.IDatabase) CalendarRepository {
	return &calendarRepository{db: db}
}

// GetConnectionByUserAndProvider returns nil, nil when the user has no active connection.
func (r *calendarRepository) GetConnectionByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarConnection, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active, created_at, updated_at
		FROM calendar_connections
		WHERE user_id = $1 AND provider = $2 AND is_active = true
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var conn entity.CalendarConnection
	if err := r.db.GetContext(ctx, &conn, query, userID, provider); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// GetConnectionsByUserID gets all active connections for a user
func (r *calendarRepository) GetConnectionsByUserID(ctx context.Context, userID uuid.UUID) ([]entity.CalendarConnection, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active, created_at, updated_at
		FROM calendar_connections
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`
	connections := []entity.CalendarConnection{}
	if err := r.db.SelectContext(ctx, &connections, query, userID); err != nil {
		return nil, err
	}
	return connections, nil
}

// UpdateConnectionToken stores a refreshed token pair
func (r *calendarRepository) UpdateConnectionToken(ctx context.Context, conn *entity.CalendarConnection) error {
	query := `
		UPDATE calendar_connections
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	return r.db.ExecContext(ctx, query, conn.AccessToken, conn.RefreshToken, conn.TokenExpiresAt, conn.ID)
}

// ListConnectedUserIDs returns every user with at least one active connection
// or declared availability, for scheduled pattern refreshes.
func (r *calendarRepository) ListConnectedUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT user_id FROM calendar_connections WHERE is_active = true
		UNION
		SELECT user_id FROM weekly_availability
		ORDER BY user_id
	`
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListEvents returns events overlapping [from, to) ordered by start
func (r *calendarRepository) ListEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.CalendarEventRecord, error) {
	query := `
		SELECT id, user_id, external_id, title, starts_at, ends_at, attendees, category, source, created_at, updated_at
		FROM calendar_events
		WHERE user_id = $1 AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at
	`
	records := []entity.CalendarEventRecord{}
	if err := r.db.SelectContext(ctx, &records, query, userID, from, to); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *calendarRepository) GetAvailability(ctx context.Context, userID uuid.UUID) ([]entity.AvailabilityRecord, error) {
	query := `
		SELECT user_id, weekday, start_minute, end_minute
		FROM weekly_availability
		WHERE user_id = $1
		ORDER BY weekday, start_minute
	`
	rows := []entity.AvailabilityRecord{}
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceAvailability swaps the user's declared windows in one transaction.
func (r *calendarRepository) ReplaceAvailability(ctx context.Context, userID uuid.UUID, rows []entity.AvailabilityRecord) error {
	tx, err := r.db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_availability WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := insertAvailability(ctx, tx, rows); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertAvailability(ctx context.Context, tx *sqlx.Tx, rows []entity.AvailabilityRecord) error {
	query := `
		INSERT INTO weekly_availability (user_id, weekday, start_minute, end_minute)
		VALUES (:user_id, :weekday, :start_minute, :end_minute)
	`
	_, err := tx.NamedExecContext(ctx, query, rows)
	return err
}
