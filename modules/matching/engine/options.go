// Package engine holds the mutual-availability matching core: candidate grid,
// working-hours inference, per-user scoring, multi-user resolution and the
// declared-availability fallback search. Everything here is synchronous and
// free of I/O.
package engine

import "time"

const (
	DefaultStep         = 30 * time.Minute
	DefaultSameDayLead  = 2 * time.Hour
	DefaultMaxSlots     = 10
	DefaultHorizonDays  = 7
	DefaultLookbackDays = 30
)

// Options carries the knobs the core would otherwise read from globals.
type Options struct {
	Step        time.Duration
	SameDayLead time.Duration
	MaxSlots    int
	Location    *time.Location
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Step:        DefaultStep,
		SameDayLead: DefaultSameDayLead,
		MaxSlots:    DefaultMaxSlots,
		Location:    time.UTC,
		Now:         time.Now,
	}
}

// withDefaults fills zero fields so a partially built Options is usable.
// A zero SameDayLead means the default lead.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Step <= 0 {
		o.Step = d.Step
	}
	if o.SameDayLead <= 0 {
		o.SameDayLead = d.SameDayLead
	}
	if o.MaxSlots <= 0 {
		o.MaxSlots = d.MaxSlots
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

func (o Options) now() time.Time {
	return o.Now().In(o.Location)
}

func (o Options) stepMinutes() int {
	return max(int(o.Step/time.Minute), 1)
}
