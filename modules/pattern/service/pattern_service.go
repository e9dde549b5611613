package service

import (
	"context"
	stderrors "errors"
	"time"

	"smartschedule/core/cache"
	"smartschedule/core/constants"
	"smartschedule/core/errors"
	"smartschedule/core/logger"
	"smartschedule/core/metrics"
	"smartschedule/modules/calendar/source"
	"smartschedule/modules/matching/engine"
	"smartschedule/modules/matching/entity"
)

// PatternService keeps per-user working-hours analyses warm in the cache.
// Events themselves are never cached.
type PatternService interface {
	Lookup(ctx context.Context, userID string) (*entity.WorkingHoursAnalysis, bool)
	Store(ctx context.Context, userID string, analysis entity.WorkingHoursAnalysis)
	Get(ctx context.Context, userID string) (*entity.WorkingHoursAnalysis, error)
	Refresh(ctx context.Context, userID string) (*entity.WorkingHoursAnalysis, error)
	Invalidate(ctx context.Context, userID string) error
}

type Deps struct {
	Cache        cache.Cache
	Events       source.EventSource
	Metrics      *metrics.Metrics
	Options      engine.Options
	LookbackDays int
	TTL          time.Duration
}

type patternService struct {
	cache    cache.Cache
	events   source.EventSource
	metrics  *metrics.Metrics
	analyzer *engine.Analyzer
	now      func() time.Time
	lookback int
	ttl      time.Duration
}

func NewPatternService(d Deps) PatternService {
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	if d.Events == nil {
		d.Events = source.NoEvents{}
	}
	if d.LookbackDays <= 0 {
		d.LookbackDays = engine.DefaultLookbackDays
	}
	now := d.Options.Now
	if now == nil {
		now = time.Now
	}
	return &patternService{
		cache:    d.Cache,
		events:   d.Events,
		metrics:  d.Metrics,
		analyzer: engine.NewAnalyzer(d.Options),
		now:      now,
		lookback: d.LookbackDays,
		ttl:      d.TTL,
	}
}

func cacheKey(userID string) string {
	return constants.PatternCacheKeyPrefix + userID
}

func (s *patternService) Lookup(ctx context.Context, userID string) (*entity.WorkingHoursAnalysis, bool) {
	var a entity.WorkingHoursAnalysis
	err := cache.GetJSON(ctx, s.cache, cacheKey(userID), &a)
	switch {
	case err == nil:
		s.metrics.PatternLookups.WithLabelValues("hit").Inc()
		return &a, true
	case stderrors.Is(err, cache.ErrCacheMiss):
		s.metrics.PatternLookups.WithLabelValues("miss").Inc()
	default:
		s.metrics.PatternLookups.WithLabelValues("error").Inc()
		logger.Warn("PatternService:Lookup:GetJSON", "user_id", userID, "error", err)
	}
	return nil, false
}

// Store never fails the caller; a cache outage only costs a recompute.
func (s *patternService) Store(ctx context.Context, userID string, analysis entity.WorkingHoursAnalysis) {
	if err := cache.SetJSON(ctx, s.cache, cacheKey(userID), analysis, s.ttl); err != nil {
		logger.Warn("PatternService:Store:SetJSON", "user_id", userID, "error", err)
	}
}

// Get returns the cached analysis, computing and caching it on a miss. A
// failed fetch answers with the default analysis, which is not cached.
func (s *patternService) Get(ctx context.Context, userID string) (*entity.WorkingHoursAnalysis, error) {
	if userID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "user_id is required", nil)
	}
	if a, ok := s.Lookup(ctx, userID); ok {
		return a, nil
	}

	var fetchErr error
	a := s.analyzer.AnalyzeSource(ctx, func(ctx context.Context, from, to time.Time) ([]entity.CalendarEvent, error) {
		events, err := s.events.ListEvents(ctx, userID, from, to)
		fetchErr = err
		return events, err
	}, s.lookback)

	switch {
	case fetchErr == nil:
		s.Store(ctx, userID, a)
	case !stderrors.Is(fetchErr, source.ErrNotConnected):
		logger.Warn("PatternService:Get:ListEvents", "user_id", userID, "error", fetchErr)
		s.metrics.FetchFailures.WithLabelValues("pattern_get").Inc()
	}
	return &a, nil
}

// Refresh recomputes from the event source. A failed fetch is an error here
// so the stale entry is kept and the task retried.
func (s *patternService) Refresh(ctx context.Context, userID string) (*entity.WorkingHoursAnalysis, error) {
	if userID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "user_id is required", nil)
	}

	now := s.now()
	events, err := s.events.ListEvents(ctx, userID, now.AddDate(0, 0, -s.lookback), now)
	if err != nil {
		if stderrors.Is(err, source.ErrNotConnected) {
			return nil, errors.NewAppError(errors.ErrNotFound, "no calendar connected for "+userID, err)
		}
		logger.Error("PatternService:Refresh:ListEvents:Error", "user_id", userID, "error", err)
		s.metrics.FetchFailures.WithLabelValues("pattern_refresh").Inc()
		return nil, errors.NewAppError(errors.ErrUpstreamFetch, "failed to load calendar events", err)
	}

	a := s.analyzer.Analyze(events, s.lookback)
	s.Store(ctx, userID, a)

	logger.Info("PatternService:Refresh:Done",
		"user_id", userID,
		"bookings", a.TotalBookings,
		"confidence", a.OverallConfidence,
	)
	return &a, nil
}

func (s *patternService) Invalidate(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, cacheKey(userID)); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to invalidate pattern", err)
	}
	return nil
}
