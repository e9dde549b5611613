package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"smartschedule/core/cache"
	"smartschedule/core/errors"
	"smartschedule/modules/calendar/source"
	"smartschedule/modules/matching/engine"
	"smartschedule/modules/matching/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)

type stubEvents struct {
	events []entity.CalendarEvent
	err    error
	calls  int
}

func (s *stubEvents) Name() string { return "stub" }

func (s *stubEvents) ListEvents(context.Context, string, time.Time, time.Time) ([]entity.CalendarEvent, error) {
	s.calls++
	return s.events, s.err
}

func newTestPatternService(events source.EventSource) PatternService {
	return NewPatternService(Deps{
		Cache:  cache.NewMemoryCache(16, time.Hour),
		Events: events,
		Options: engine.Options{
			Location: time.UTC,
			Now:      func() time.Time { return testNow },
		},
		LookbackDays: 30,
		TTL:          time.Hour,
	})
}

// ten past weekdays with a 10:00-11:00 meeting
func history() []entity.CalendarEvent {
	var out []entity.CalendarEvent
	for d := 1; len(out) < 10; d++ {
		day := testNow.AddDate(0, 0, -d)
		if entity.IsWeekend(day.Weekday()) {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)
		out = append(out, entity.CalendarEvent{ID: start.Format(time.RFC3339), Start: start, End: start.Add(time.Hour)})
	}
	return out
}

func TestGet_ComputesThenHitsCache(t *testing.T) {
	events := &stubEvents{events: history()}
	svc := newTestPatternService(events)
	ctx := context.Background()

	first, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, first.Defaulted)
	assert.Equal(t, 10, first.TotalBookings)

	second, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.TotalBookings, second.TotalBookings)
	assert.Equal(t, 1, events.calls)
}

func TestGet_FetchFailureFallsBackToDefault(t *testing.T) {
	events := &stubEvents{err: stderrors.New("boom")}
	svc := newTestPatternService(events)
	ctx := context.Background()

	a, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.True(t, a.Defaulted)
	assert.Equal(t, entity.DefaultAnalysis(30).Pattern, a.Pattern)

	_, ok := svc.Lookup(ctx, "u1")
	assert.False(t, ok, "a fallback analysis must not be cached")

	events.err = nil
	events.events = history()
	a, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, a.Defaulted)
	assert.Equal(t, 2, events.calls)

	_, err = svc.Get(ctx, "")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidInput))
}

func TestRefresh_OverwritesCache(t *testing.T) {
	events := &stubEvents{}
	svc := newTestPatternService(events)
	ctx := context.Background()

	a, err := svc.Refresh(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, a.Defaulted)

	events.events = history()
	_, err = svc.Refresh(ctx, "u1")
	require.NoError(t, err)

	cached, ok := svc.Lookup(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, 10, cached.TotalBookings)
}

func TestRefresh_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestPatternService(&stubEvents{err: stderrors.New("boom")}).Refresh(ctx, "u1")
	assert.True(t, errors.IsCode(err, errors.ErrUpstreamFetch))

	_, err = newTestPatternService(&stubEvents{err: source.ErrNotConnected}).Refresh(ctx, "u1")
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))

	unconnected := source.NewComposite(&stubEvents{err: source.ErrNotConnected})
	_, err = newTestPatternService(unconnected).Refresh(ctx, "u1")
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))

	_, err = newTestPatternService(&stubEvents{}).Refresh(ctx, "")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidInput))
}

func TestInvalidate(t *testing.T) {
	svc := newTestPatternService(&stubEvents{})
	ctx := context.Background()

	svc.Store(ctx, "u1", entity.DefaultAnalysis(30))
	_, ok := svc.Lookup(ctx, "u1")
	require.True(t, ok)

	require.NoError(t, svc.Invalidate(ctx, "u1"))
	_, ok = svc.Lookup(ctx, "u1")
	assert.False(t, ok)
}
