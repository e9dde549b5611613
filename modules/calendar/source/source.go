// Package source defines where participants' busy events and declared hours
// come from, and combines several providers into one.
package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"smartschedule/core/logger"
	"smartschedule/modules/matching/entity"

	"golang.org/x/sync/errgroup"
)

// ErrNotConnected means the user has no calendar for this provider. Composite
// skips a provider that reports it and returns it only when every provider did.
var ErrNotConnected = errors.New("calendar not connected")

// EventSource returns a user's busy events overlapping [from, to).
type EventSource interface {
	Name() string
	ListEvents(ctx context.Context, userID string, from, to time.Time) ([]entity.CalendarEvent, error)
}

// AvailabilitySource returns a user's declared weekly hours; nil means none declared.
type AvailabilitySource interface {
	GetAvailability(ctx context.Context, userID string) (entity.WeeklyAvailability, error)
}

// Composite fans a request out to several event sources and merges the
// results. It fails only when every source that is connected failed.
type Composite struct {
	sources []EventSource
}

func NewComposite(sources ...EventSource) *Composite {
	return &Composite{sources: sources}
}

func (c *Composite) Name() string { return "composite" }

func (c *Composite) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]entity.CalendarEvent, error) {
	results := make([][]entity.CalendarEvent, len(c.sources))
	errs := make([]error, len(c.sources))

	var g errgroup.Group
	for i, src := range c.sources {
		g.Go(func() error {
			events, err := src.ListEvents(ctx, userID, from, to)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				return nil
			}
			for j := range events {
				if events[j].Source == "" {
					events[j].Source = src.Name()
				}
			}
			results[i] = events
			return nil
		})
	}
	_ = g.Wait()

	var (
		failed       []error
		succeeded    int
		notConnected int
	)
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNotConnected):
			notConnected++
		default:
			logger.Warn("CompositeSource:ListEvents:SourceFailed", "user_id", userID, "source", c.sources[i].Name(), "error", err)
			failed = append(failed, err)
		}
	}
	if succeeded == 0 && len(failed) > 0 {
		return nil, errors.Join(failed...)
	}
	if len(c.sources) > 0 && notConnected == len(c.sources) {
		return nil, ErrNotConnected
	}
	return mergeEvents(results), nil
}

// mergeEvents de-duplicates by source and id and sorts by start.
func mergeEvents(batches [][]entity.CalendarEvent) []entity.CalendarEvent {
	seen := make(map[string]struct{})
	out := []entity.CalendarEvent{}
	for _, batch := range batches {
		for _, e := range batch {
			if e.ID != "" {
				key := e.Source + "\x00" + e.ID
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b entity.CalendarEvent) int { return a.Start.Compare(b.Start) })
	return out
}

// StaticAvailability answers every user with the same schedule. Used when no
// store is configured.
type StaticAvailability struct {
	Schedule entity.WeeklyAvailability
}

func (s StaticAvailability) GetAvailability(context.Context, string) (entity.WeeklyAvailability, error) {
	return s.Schedule, nil
}

// NoEvents is an EventSource with an empty calendar.
type NoEvents struct{}

func (NoEvents) Name() string { return "none" }

func (NoEvents) ListEvents(context.Context, string, time.Time, time.Time) ([]entity.CalendarEvent, error) {
	return []entity.CalendarEvent{}, nil
}
