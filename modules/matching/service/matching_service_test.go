package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"smartschedule/core/config"
	"smartschedule/core/errors"
	"smartschedule/modules/calendar/source"
	"smartschedule/modules/matching/engine"
	"smartschedule/modules/matching/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wednesday 2025-03-05 08:00 UTC
var testNow = time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)

type fakeEvents struct {
	mu     sync.Mutex
	events map[string][]entity.CalendarEvent
	fail   map[string]error
	calls  map[string]int
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{
		events: map[string][]entity.CalendarEvent{},
		fail:   map[string]error{},
		calls:  map[string]int{},
	}
}

func (f *fakeEvents) Name() string { return "fake" }

func (f *fakeEvents) ListEvents(_ context.Context, userID string, _, _ time.Time) ([]entity.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[userID]++
	if err := f.fail[userID]; err != nil {
		return nil, err
	}
	return f.events[userID], nil
}

type fakePatterns struct {
	mu     sync.Mutex
	stored map[string]entity.WorkingHoursAnalysis
	stores int
}

func (p *fakePatterns) Lookup(_ context.Context, userID string) (*entity.WorkingHoursAnalysis, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.stored[userID]
	if !ok {
		return nil, false
	}
	return &a, true
}

func (p *fakePatterns) Store(_ context.Context, userID string, a entity.WorkingHoursAnalysis) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stored == nil {
		p.stored = map[string]entity.WorkingHoursAnalysis{}
	}
	p.stored[userID] = a
	p.stores++
}

func testConfig() config.MatchingConfig {
	return config.MatchingConfig{
		SlotStepMinutes:    30,
		SameDayLeadMinutes: 120,
		HorizonDays:        7,
		LookbackDays:       30,
		MaxCandidates:      400,
		MaxResults:         10,
		DefaultPolicy:      "require_all",
		FetchConcurrency:   2,
		RequestTimeout:     5 * time.Second,
	}
}

func newTestService(d Deps) MatchingService {
	d.Config = testConfig()
	d.Location = time.UTC
	d.Now = func() time.Time { return testNow }
	return NewMatchingService(d)
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, time.UTC)
}

func busy(id string, start, end time.Time) entity.CalendarEvent {
	return entity.CalendarEvent{ID: id, Start: start, End: end, Category: entity.CategoryMeeting}
}

func TestFindSlots_SkipsBusyAndRanksByConfidence(t *testing.T) {
	svc := newTestService(Deps{})

	res, err := svc.FindSlots(context.Background(), FindSlotsInput{
		Participants: []ParticipantInput{
			{ID: "a", Events: []entity.CalendarEvent{busy("e1", at(5, 10, 0), at(5, 11, 0))}},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, engine.PolicyRequireAll, res.Policy)
	assert.Equal(t, entity.DefaultDurationMinutes, res.Constraints.DurationMinutes)
	assert.Empty(t, res.DegradedParticipants)
	assert.Empty(t, res.Message)

	ranked := res.Resolution.RankedSlots
	require.Len(t, ranked, 10)
	// wednesday's 10:00 hour is busy, so the first 10:00 slot is thursday's
	assert.Equal(t, at(6, 10, 0), ranked[0].Start)
	assert.InDelta(t, 0.8, ranked[0].Confidence, 1e-9)
	for _, s := range ranked {
		assert.False(t, s.Start.Before(at(5, 11, 0)) && s.End.After(at(5, 10, 0)), "slot %s overlaps busy event", s.Start)
		assert.Equal(t, []string{"a"}, s.AvailableUsers)
	}
}

func TestFindSlots_NotConnectedIsNotDegraded(t *testing.T) {
	events := newFakeEvents()
	events.fail["b"] = source.ErrNotConnected
	svc := newTestService(Deps{Events: events})

	res, err := svc.FindSlots(context.Background(), FindSlotsInput{
		Participants: []ParticipantInput{{ID: "a"}, {ID: "b"}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.DegradedParticipants)
	assert.NotEmpty(t, res.Resolution.RankedSlots)
}

func TestFindSlots_FetchFailureDegrades(t *testing.T) {
	events := newFakeEvents()
	events.fail["b"] = stderrors.New("upstream down")
	svc := newTestService(Deps{Events: events})

	res, err := svc.FindSlots(context.Background(), FindSlotsInput{
		Participants: []ParticipantInput{{ID: "a"}, {ID: "b"}},
	})
	require.NoError(t, err)

	require.Len(t, res.DegradedParticipants, 1)
	assert.Equal(t, "b", res.DegradedParticipants[0].UserID)
	assert.NotEmpty(t, res.Resolution.RankedSlots)
	assert.Equal(t, 1, events.calls["a"])
	assert.Equal(t, 1, events.calls["b"])
}

func TestFindSlots_InlineEventsSkipFetch(t *testing.T) {
	events := newFakeEvents()
	svc := newTestService(Deps{Events: events})

	_, err := svc.FindSlots(context.Background(), FindSlotsInput{
		Participants: []ParticipantInput{{ID: "a", Events: []entity.CalendarEvent{}}},
	})
	require.NoError(t, err)
	assert.Zero(t, events.calls["a"])
}

func TestFindSlots_UsesPatternCache(t *testing.T) {
	patterns := &fakePatterns{}
	svc := newTestService(Deps{Events: newFakeEvents(), Patterns: patterns})

	in := FindSlotsInput{Participants: []ParticipantInput{{ID: "a"}}}
	_, err := svc.FindSlots(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.FindSlots(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, patterns.stores)
	assert.Contains(t, patterns.stored, "a")
}

func TestFindSlots_SharedAvailabilityBoundsGrid(t *testing.T) {
	morning := entity.WeeklyAvailability{time.Thursday: {entity.MustTimeWindow("09:00", "12:00")}}
	late := entity.WeeklyAvailability{time.Thursday: {entity.MustTimeWindow("10:00", "15:00")}}
	svc := newTestService(Deps{})

	res, err := svc.FindSlots(context.Background(), FindSlotsInput{
		Participants: []ParticipantInput{
			{ID: "a", Events: []entity.CalendarEvent{}, Availability: morning},
			{ID: "b", Events: []entity.CalendarEvent{}, Availability: late},
		},
	})
	require.NoError(t, err)

	ranked := res.Resolution.RankedSlots
	require.Len(t, ranked, 3)
	for _, s := range ranked {
		assert.Equal(t, time.Thursday, s.Start.Weekday())
		assert.False(t, s.Start.Before(at(6, 10, 0)))
		assert.False(t, s.End.After(at(6, 12, 0)))
	}
}

func TestFindSlots_TextAndStructuredConstraints(t *testing.T) {
	svc := newTestService(Deps{})

	res, err := svc.FindSlots(context.Background(), FindSlotsInput{
		Participants: []ParticipantInput{{ID: "a", Events: []entity.CalendarEvent{}}},
		Text:         "30 minute sync in the afternoon",
		Constraints:  &entity.Constraints{DurationMinutes: 45},
	})
	require.NoError(t, err)

	assert.Equal(t, 45, res.Constraints.DurationMinutes)
	assert.Equal(t, entity.TimeOfDayAfternoon, res.Constraints.PreferredTime)
	for _, s := range res.Resolution.RankedSlots {
		assert.GreaterOrEqual(t, s.Start.Hour(), 12)
		assert.Equal(t, 45*time.Minute, s.End.Sub(s.Start))
	}
}

func TestFindSlots_Rejects(t *testing.T) {
	svc := newTestService(Deps{})
	ctx := context.Background()

	tests := []struct {
		name string
		in   FindSlotsInput
		code errors.ErrorCode
	}{
		{"no participants", FindSlotsInput{}, errors.ErrInvalidInput},
		{"duplicate participant", FindSlotsInput{Participants: []ParticipantInput{{ID: "a"}, {ID: "a"}}}, errors.ErrInvalidInput},
		{"empty id", FindSlotsInput{Participants: []ParticipantInput{{}}}, errors.ErrInvalidInput},
		{"unknown policy", FindSlotsInput{Participants: []ParticipantInput{{ID: "a"}}, Policy: "quorum"}, errors.ErrInvalidInput},
		{
			"negative duration",
			FindSlotsInput{
				Participants: []ParticipantInput{{ID: "a"}},
				Constraints:  &entity.Constraints{DurationMinutes: -15},
			},
			errors.ErrMalformedConstraint,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FindSlots(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestFindSlots_NoSlotsMessage(t *testing.T) {
	svc := newTestService(Deps{})
	allWeek := make([]entity.CalendarEvent, 0, 7)
	for d := range 7 {
		allWeek = append(allWeek, busy("x", at(5+d, 0, 0), at(6+d, 0, 0)))
	}

	res, err := svc.FindSlots(context.Background(), FindSlotsInput{
		Participants: []ParticipantInput{{ID: "a", Events: allWeek}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Resolution.RankedSlots)
	assert.Equal(t, MessageNoSlots, res.Message)
}

func TestFallbackSlots(t *testing.T) {
	store := source.StaticAvailability{Schedule: entity.WeeklyAvailability{
		time.Thursday: {entity.MustTimeWindow("12:00", "18:00")},
	}}
	svc := newTestService(Deps{Availability: store})

	res, err := svc.FallbackSlots(context.Background(), FallbackInput{
		Availabilities: []entity.WeeklyAvailability{entity.BusinessWeek()},
		UserIDs:        []string{"b"},
	})
	require.NoError(t, err)

	require.NotEmpty(t, res.Slots)
	for _, s := range res.Slots {
		assert.Equal(t, time.Thursday, s.Start.Weekday())
		assert.GreaterOrEqual(t, s.Start.Hour(), 12)
		assert.False(t, s.End.After(at(6, 17, 0)))
	}
}

func TestFallbackSlots_Rejects(t *testing.T) {
	svc := newTestService(Deps{})
	ctx := context.Background()

	_, err := svc.FallbackSlots(ctx, FallbackInput{Availabilities: []entity.WeeklyAvailability{entity.BusinessWeek()}})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidInput))

	overlapping := entity.WeeklyAvailability{time.Monday: {
		entity.MustTimeWindow("09:00", "12:00"),
		entity.MustTimeWindow("11:00", "13:00"),
	}}
	_, err = svc.FallbackSlots(ctx, FallbackInput{Availabilities: []entity.WeeklyAvailability{entity.BusinessWeek(), overlapping}})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidInput))

	_, err = svc.FallbackSlots(ctx, FallbackInput{
		Availabilities: []entity.WeeklyAvailability{entity.BusinessWeek()},
		UserIDs:        []string{"nobody"},
	})
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestParseConstraints(t *testing.T) {
	svc := newTestService(Deps{})
	c := svc.ParseConstraints("quick 30 minute chat tomorrow morning")
	assert.Equal(t, 30, c.DurationMinutes)
	assert.Equal(t, entity.TimeOfDayMorning, c.PreferredTime)
	require.NotNil(t, c.DateRange)
}

func TestAnalyze(t *testing.T) {
	events := newFakeEvents()
	events.fail["broken"] = stderrors.New("boom")
	svc := newTestService(Deps{Events: events})
	ctx := context.Background()

	a, err := svc.Analyze(ctx, AnalyzeInput{Events: []entity.CalendarEvent{}})
	require.NoError(t, err)
	assert.True(t, a.Defaulted)
	assert.Equal(t, 30, a.LookbackDays)

	a, err = svc.Analyze(ctx, AnalyzeInput{UserID: "a", LookbackDays: 14})
	require.NoError(t, err)
	assert.Equal(t, 14, a.LookbackDays)
	assert.Equal(t, 1, events.calls["a"])

	a, err = svc.Analyze(ctx, AnalyzeInput{UserID: "broken"})
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.True(t, a.Defaulted)
	assert.Equal(t, entity.DefaultAnalysis(30).Pattern, a.Pattern)
	assert.Equal(t, 1, events.calls["broken"])

	_, err = svc.Analyze(ctx, AnalyzeInput{})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidInput))
}

func TestMergeConstraints(t *testing.T) {
	w := entity.MustTimeWindow("13:00", "15:00")
	parsed := entity.Constraints{DurationMinutes: 30, PreferredTime: entity.TimeOfDayMorning, Location: "SoMa"}
	merged := mergeConstraints(parsed, entity.Constraints{TimeWindow: &w})

	assert.Equal(t, 30, merged.DurationMinutes)
	assert.Equal(t, &w, merged.TimeWindow)
	assert.Equal(t, entity.TimeOfDayAny, merged.PreferredTime)
	assert.Equal(t, "SoMa", merged.Location)
}
