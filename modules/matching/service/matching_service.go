package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"smartschedule/core/config"
	"smartschedule/core/errors"
	"smartschedule/core/logger"
	"smartschedule/core/metrics"
	"smartschedule/core/utils"
	"smartschedule/modules/calendar/source"
	"smartschedule/modules/matching/engine"
	"smartschedule/modules/matching/entity"
	"smartschedule/modules/matching/parser"

	"golang.org/x/sync/errgroup"
)

type MatchingService interface {
	FindSlots(ctx context.Context, in FindSlotsInput) (*FindSlotsResult, error)
	FallbackSlots(ctx context.Context, in FallbackInput) (*FallbackResult, error)
	ParseConstraints(text string) entity.Constraints
	Analyze(ctx context.Context, in AnalyzeInput) (*entity.WorkingHoursAnalysis, error)
}

type Deps struct {
	Events       source.EventSource
	Availability source.AvailabilitySource
	Patterns     PatternProvider
	Parser       parser.Parser
	Metrics      *metrics.Metrics
	Config       config.MatchingConfig
	Location     *time.Location
	Now          func() time.Time
}

type matchingService struct {
	events       source.EventSource
	availability source.AvailabilitySource
	patterns     PatternProvider
	parser       parser.Parser
	metrics      *metrics.Metrics
	cfg          config.MatchingConfig
	opts         engine.Options
	analyzer     *engine.Analyzer
	resolver     *engine.Resolver
}

func NewMatchingService(d Deps) MatchingService {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Events == nil {
		d.Events = source.NoEvents{}
	}
	if d.Parser == nil {
		d.Parser = parser.NewKeywordParser(d.Location, d.Now)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	opts := EngineOptions(d.Config, d.Location, d.Now)
	return &matchingService{
		events:       d.Events,
		availability: d.Availability,
		patterns:     d.Patterns,
		parser:       d.Parser,
		metrics:      d.Metrics,
		cfg:          d.Config,
		opts:         opts,
		analyzer:     engine.NewAnalyzer(opts),
		resolver:     engine.NewResolver(engine.NewScorer()),
	}
}

func (s *matchingService) ParseConstraints(text string) entity.Constraints {
	return s.parser.Parse(text)
}

// FindSlots loads every participant concurrently, then grids, scores and
// resolves. A participant whose fetch fails is matched on defaults.
func (s *matchingService) FindSlots(ctx context.Context, in FindSlotsInput) (*FindSlotsResult, error) {
	started := time.Now()
	requestID := utils.GenerateID()

	// 1. Validate input
	if len(in.Participants) == 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "at least one participant is required", nil)
	}
	if err := uniqueParticipants(in.Participants); err != nil {
		return nil, err
	}
	constraints, err := s.resolveConstraints(in.Text, in.Constraints)
	if err != nil {
		return nil, err
	}
	policy := in.Policy
	if policy == "" {
		policy = engine.Policy(s.cfg.DefaultPolicy)
	}
	if !policy.Valid() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("unknown policy %q", policy), nil)
	}

	logger.Info("MatchingService:FindSlots:Start",
		"request_id", requestID,
		"participants", len(in.Participants),
		"duration_minutes", constraints.DurationMinutes,
		"policy", string(policy),
	)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// 2. Work out the horizon and load participants
	horizonStart, horizonDays := s.horizon(in.HorizonStart, in.HorizonDays)
	grid := engine.GridFromConstraints(constraints, horizonStart, horizonDays)
	gridEnd := entity.StartOfDay(grid.HorizonStart.In(s.opts.Location)).AddDate(0, 0, grid.HorizonDays)

	loaded, degraded := s.loadParticipants(ctx, in.Participants, gridEnd)

	// 3. Generate candidates
	grid.MaxSlots = s.cfg.MaxCandidates
	grid.AllowWeekends = in.AllowWeekends
	grid.Availability = sharedAvailability(loaded)
	candidates := engine.NewGrid(grid, s.opts).Collect()

	// 4. Resolve
	maxResults := in.MaxResults
	if maxResults <= 0 {
		maxResults = s.cfg.MaxResults
	}
	resolution := s.resolver.Resolve(engine.ResolveRequest{
		Candidates:   candidates,
		Participants: loaded,
		Policy:       policy,
		MaxResults:   maxResults,
	})

	result := &FindSlotsResult{
		RequestID:            requestID,
		Constraints:          constraints,
		Policy:               policy,
		Resolution:           resolution,
		DegradedParticipants: degraded,
	}
	if len(resolution.RankedSlots) == 0 {
		result.Message = MessageNoSlots
	}

	s.metrics.MatchDuration.WithLabelValues("find_slots").Observe(time.Since(started).Seconds())
	s.metrics.SlotsReturned.WithLabelValues("find_slots").Observe(float64(len(resolution.RankedSlots)))
	logger.Info("MatchingService:FindSlots:Done",
		"request_id", requestID,
		"candidates", len(candidates),
		"ranked", len(resolution.RankedSlots),
		"degraded", len(degraded),
		"elapsed", time.Since(started),
	)
	return result, nil
}

// FallbackSlots searches declared availability only, with no calendar fetches.
func (s *matchingService) FallbackSlots(ctx context.Context, in FallbackInput) (*FallbackResult, error) {
	started := time.Now()

	constraints, err := s.resolveConstraints(in.Text, in.Constraints)
	if err != nil {
		return nil, err
	}

	parties := make([]entity.WeeklyAvailability, 0, len(in.Availabilities)+len(in.UserIDs))
	for i, wa := range in.Availabilities {
		if err := wa.Validate(); err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("availability %d: %v", i, err), err)
		}
		parties = append(parties, wa)
	}
	if len(in.UserIDs) > 0 {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		for _, id := range in.UserIDs {
			wa, err := s.storedAvailability(ctx, id)
			if err != nil {
				return nil, errors.NewAppError(errors.ErrUpstreamFetch, "failed to load availability for "+id, err)
			}
			if wa == nil {
				return nil, errors.NewAppError(errors.ErrNotFound, "no declared availability for "+id, nil)
			}
			parties = append(parties, wa)
		}
	}
	if len(parties) < 2 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "fallback search needs at least two schedules", nil)
	}

	horizonStart, horizonDays := s.horizon(in.HorizonStart, in.HorizonDays)
	slots := engine.FallbackSearch(engine.FallbackRequest{
		Parties:      parties,
		Constraints:  constraints,
		HorizonStart: horizonStart,
		HorizonDays:  horizonDays,
	}, s.opts)

	result := &FallbackResult{Constraints: constraints, Slots: slots}
	if len(slots) == 0 {
		result.Message = MessageNoSlots
	}

	s.metrics.MatchDuration.WithLabelValues("fallback").Observe(time.Since(started).Seconds())
	s.metrics.SlotsReturned.WithLabelValues("fallback").Observe(float64(len(slots)))
	logger.Info("MatchingService:FallbackSlots:Done", "parties", len(parties), "slots", len(slots))
	return result, nil
}

// Analyze infers working hours from inline events, or from the event source
// when none are given.
func (s *matchingService) Analyze(ctx context.Context, in AnalyzeInput) (*entity.WorkingHoursAnalysis, error) {
	lookback := in.LookbackDays
	if lookback <= 0 {
		lookback = s.cfg.LookbackDays
	}
	if in.Events != nil {
		a := s.analyzer.Analyze(in.Events, lookback)
		return &a, nil
	}
	if in.UserID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "user_id or events is required", nil)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// A failed fetch answers with the default analysis.
	a := s.analyzer.AnalyzeSource(ctx, func(ctx context.Context, from, to time.Time) ([]entity.CalendarEvent, error) {
		events, err := s.events.ListEvents(ctx, in.UserID, from, to)
		if err != nil && !stderrors.Is(err, source.ErrNotConnected) {
			logger.Warn("MatchingService:Analyze:ListEvents", "user_id", in.UserID, "error", err)
			s.metrics.FetchFailures.WithLabelValues("analyze").Inc()
		}
		return events, err
	}, lookback)
	return &a, nil
}

func (s *matchingService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *matchingService) horizon(start time.Time, days int) (time.Time, int) {
	if start.IsZero() {
		start = s.opts.Now()
	}
	if days <= 0 {
		days = s.cfg.HorizonDays
	}
	return start.In(s.opts.Location), days
}

// resolveConstraints parses text and overlays any structured fields, then validates.
func (s *matchingService) resolveConstraints(text string, structured *entity.Constraints) (entity.Constraints, error) {
	var c entity.Constraints
	switch {
	case structured != nil && text != "":
		c = mergeConstraints(s.parser.Parse(text), *structured)
	case structured != nil:
		c = *structured
	case text != "":
		c = s.parser.Parse(text)
	default:
		c = entity.Constraints{DurationMinutes: entity.DefaultDurationMinutes}
	}
	c.AvoidDays = c.AvoidDays.Normalize()

	if err := c.Validate(); err != nil {
		return c, errors.NewAppError(errors.ErrMalformedConstraint, err.Error(), err)
	}
	return c, nil
}

// mergeConstraints lets every set field of override win over parsed.
func mergeConstraints(parsed, override entity.Constraints) entity.Constraints {
	out := parsed
	if override.DurationMinutes != 0 {
		out.DurationMinutes = override.DurationMinutes
	}
	if override.TimeWindow != nil {
		out.TimeWindow = override.TimeWindow
		out.PreferredTime = entity.TimeOfDayAny
	}
	if override.PreferredTime != entity.TimeOfDayAny && out.TimeWindow == nil {
		out.PreferredTime = override.PreferredTime
	}
	if len(override.AvoidDays) > 0 {
		out.AvoidDays = override.AvoidDays
	}
	if override.TravelBuffer != nil {
		out.TravelBuffer = override.TravelBuffer
	}
	if override.DateRange != nil {
		out.DateRange = override.DateRange
	}
	if override.Location != "" {
		out.Location = override.Location
	}
	return out
}

func uniqueParticipants(ps []ParticipantInput) error {
	seen := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		if p.ID == "" {
			return errors.NewAppError(errors.ErrInvalidInput, "participant id is required", nil)
		}
		if _, dup := seen[p.ID]; dup {
			return errors.NewAppError(errors.ErrInvalidInput, "duplicate participant "+p.ID, nil)
		}
		seen[p.ID] = struct{}{}
		if p.Availability != nil {
			if err := p.Availability.Validate(); err != nil {
				return errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("participant %s availability: %v", p.ID, err), err)
			}
		}
	}
	return nil
}

// sharedAvailability intersects declared schedules when every participant
// declared one; otherwise the grid falls back to preference or business hours.
func sharedAvailability(ps []engine.ResolveParticipant) entity.WeeklyAvailability {
	if len(ps) == 0 {
		return nil
	}
	var shared entity.WeeklyAvailability
	for i, p := range ps {
		if p.Profile.Availability == nil {
			return nil
		}
		if i == 0 {
			shared = p.Profile.Availability.Normalize()
			continue
		}
		shared = shared.Intersect(p.Profile.Availability)
	}
	return shared
}

type loadResult struct {
	participant engine.ResolveParticipant
	degraded    []string
}

// loadParticipants fetches everyone concurrently, bounded by fetch_concurrency.
// Results keep input order.
func (s *matchingService) loadParticipants(ctx context.Context, in []ParticipantInput, until time.Time) ([]engine.ResolveParticipant, []DegradedParticipant) {
	results := make([]loadResult, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.FetchConcurrency, 1))
	for i, p := range in {
		g.Go(func() error {
			results[i] = s.loadParticipant(gctx, p, until)
			return nil
		})
	}
	_ = g.Wait()

	participants := make([]engine.ResolveParticipant, len(in))
	degraded := []DegradedParticipant{}
	for i, r := range results {
		participants[i] = r.participant
		for _, reason := range r.degraded {
			degraded = append(degraded, DegradedParticipant{UserID: r.participant.ID, Reason: reason})
		}
	}
	return participants, degraded
}

func (s *matchingService) loadParticipant(ctx context.Context, p ParticipantInput, until time.Time) loadResult {
	now := s.opts.Now()
	lookback := s.cfg.LookbackDays
	if lookback <= 0 {
		lookback = engine.DefaultLookbackDays
	}
	res := loadResult{participant: engine.ResolveParticipant{ID: p.ID}}

	events := p.Events
	eventsOK := true
	if events == nil {
		fetched, err := s.events.ListEvents(ctx, p.ID, now.AddDate(0, 0, -lookback), until)
		switch {
		case stderrors.Is(err, source.ErrNotConnected):
			fetched = []entity.CalendarEvent{}
		case err != nil:
			logger.Warn("MatchingService:loadParticipant:ListEvents", "user_id", p.ID, "error", err)
			s.metrics.FetchFailures.WithLabelValues("events").Inc()
			res.degraded = append(res.degraded, "calendar events unavailable, using default working hours")
			eventsOK = false
		}
		events = fetched
	}

	availability := p.Availability
	if availability == nil && s.availability != nil {
		wa, err := s.availability.GetAvailability(ctx, p.ID)
		if err != nil {
			logger.Warn("MatchingService:loadParticipant:GetAvailability", "user_id", p.ID, "error", err)
			s.metrics.FetchFailures.WithLabelValues("availability").Inc()
			res.degraded = append(res.degraded, "declared availability unavailable")
		}
		availability = wa
	}

	var analysis entity.WorkingHoursAnalysis
	switch {
	case !eventsOK:
		analysis = entity.DefaultAnalysis(lookback)
	case p.Events != nil:
		analysis = s.analyzer.Analyze(events, lookback)
	default:
		analysis = s.cachedAnalysis(ctx, p.ID, events, lookback)
	}

	history := make([]entity.CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.Start.Before(now) {
			history = append(history, e)
		}
	}

	res.participant.Events = events
	res.participant.Profile = engine.Profile{
		Analysis:     &analysis,
		Availability: availability,
		History:      history,
	}
	return res
}

func (s *matchingService) cachedAnalysis(ctx context.Context, userID string, events []entity.CalendarEvent, lookback int) entity.WorkingHoursAnalysis {
	if s.patterns == nil {
		return s.analyzer.Analyze(events, lookback)
	}
	if cached, ok := s.patterns.Lookup(ctx, userID); ok {
		return *cached
	}
	analysis := s.analyzer.Analyze(events, lookback)
	s.patterns.Store(ctx, userID, analysis)
	return analysis
}

func (s *matchingService) storedAvailability(ctx context.Context, userID string) (entity.WeeklyAvailability, error) {
	if s.availability == nil {
		return nil, nil
	}
	return s.availability.GetAvailability(ctx, userID)
}
