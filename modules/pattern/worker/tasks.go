package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smartschedule/core/constants"
	"smartschedule/core/errors"
	"smartschedule/core/logger"
	"smartschedule/modules/pattern/service"

	"github.com/hibiken/asynq"
)

const uniqueWindow = 30 * time.Minute

type AnalyzePayload struct {
	UserID string `json:"user_id"`
}

func NewAnalyzeTask(userID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AnalyzePayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(constants.TaskAnalyzePattern, payload), nil
}

// TaskClient is the subset of *asynq.Client the enqueuer needs.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Enqueuer interface {
	EnqueueAnalyze(ctx context.Context, userID string) error
}

type asynqEnqueuer struct {
	client TaskClient
	queue  string
}

func NewEnqueuer(client TaskClient, queue string) Enqueuer {
	if queue == "" {
		queue = "default"
	}
	return &asynqEnqueuer{client: client, queue: queue}
}

// EnqueueAnalyze schedules a recompute. A duplicate inside the unique window
// counts as success.
func (q *asynqEnqueuer) EnqueueAnalyze(ctx context.Context, userID string) error {
	task, err := NewAnalyzeTask(userID)
	if err != nil {
		return errors.NewAppError(errors.ErrEnqueueFailed, "failed to build task", err)
	}

	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(q.queue),
		asynq.Unique(uniqueWindow),
		asynq.MaxRetry(5),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Debug("PatternWorker:EnqueueAnalyze:Duplicate", "user_id", userID)
			return nil
		}
		logger.Error("PatternWorker:EnqueueAnalyze:Error", "user_id", userID, "error", err)
		return errors.NewAppError(errors.ErrEnqueueFailed, "failed to enqueue pattern refresh", err)
	}

	logger.Info("PatternWorker:EnqueueAnalyze", "user_id", userID, "task_id", info.ID, "queue", info.Queue)
	return nil
}

// Handler processes pattern:analyze tasks.
type Handler struct {
	patterns service.PatternService
}

func NewHandler(patterns service.PatternService) *Handler {
	return &Handler{patterns: patterns}
}

func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(constants.TaskAnalyzePattern, h.HandleAnalyze)
}

func (h *Handler) HandleAnalyze(ctx context.Context, t *asynq.Task) error {
	var p AnalyzePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.UserID == "" {
		return fmt.Errorf("empty user_id: %w", asynq.SkipRetry)
	}

	if _, err := h.patterns.Refresh(ctx, p.UserID); err != nil {
		if errors.IsCode(err, errors.ErrNotFound) {
			logger.Warn("PatternWorker:HandleAnalyze:NotConnected", "user_id", p.UserID)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}
