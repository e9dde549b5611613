package worker

import (
	"context"
	"time"

	"smartschedule/core/errors"
	"smartschedule/core/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// UserLister returns every user with a connected calendar or declared availability.
type UserLister interface {
	ListConnectedUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Scheduler enqueues a pattern refresh for every known user on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	users   UserLister
	enqueue Enqueuer
	timeout time.Duration
}

func NewScheduler(cronSpec string, loc *time.Location, users UserLister, enqueue Enqueuer) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		users:   users,
		enqueue: enqueue,
		timeout: 5 * time.Minute,
	}
	if _, err := s.cron.AddFunc(cronSpec, s.run); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid refresh cron "+cronSpec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("PatternScheduler:Start", "entries", len(s.cron.Entries()))
}

// Stop waits for a running refresh to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.RefreshAll(ctx)
	if err != nil {
		logger.Error("PatternScheduler:run:Error", "enqueued", n, "error", err)
		return
	}
	logger.Info("PatternScheduler:run:Done", "enqueued", n)
}

// RefreshAll enqueues one task per user and returns how many were accepted.
// Individual enqueue failures are logged and skipped.
func (s *Scheduler) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.users.ListConnectedUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return enqueued, ctx.Err()
		}
		if err := s.enqueue.EnqueueAnalyze(ctx, id.String()); err != nil {
			logger.Warn("PatternScheduler:RefreshAll:Enqueue", "user_id", id, "error", err)
			continue
		}
		enqueued++
	}
	return enqueued, nil
}
