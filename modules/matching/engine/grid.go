package engine

import (
	"iter"
	"slices"
	"time"

	"smartschedule/modules/matching/entity"
)

// GridRequest describes the candidate space to enumerate.
type GridRequest struct {
	Duration      time.Duration
	Window        *entity.TimeWindow
	Preference    entity.TimeOfDay
	ExcludedDays  entity.WeekdayList
	HorizonStart  time.Time
	HorizonDays   int
	MaxSlots      int
	Availability  entity.WeeklyAvailability
	AllowWeekends bool

	// AlignStarts rounds each window start up to the step before enumerating.
	AlignStarts bool

	// NotBefore and NotAfter bound slots to [NotBefore, NotAfter] when set.
	NotBefore time.Time
	NotAfter  time.Time

	// Accept filters slots before they count toward MaxSlots.
	Accept func(entity.CandidateSlot) bool
}

// GridFromConstraints maps parsed constraints onto a grid request. A date
// range overrides the horizon and bounds every slot to [Start, End).
func GridFromConstraints(c entity.Constraints, horizonStart time.Time, horizonDays int) GridRequest {
	req := GridRequest{
		Duration:     c.Duration(),
		Window:       c.TimeWindow,
		Preference:   c.PreferredTime,
		ExcludedDays: c.AvoidDays,
		HorizonStart: horizonStart,
		HorizonDays:  horizonDays,
	}
	if c.DateRange != nil {
		req.HorizonStart = c.DateRange.Start
		req.HorizonDays = c.DateRange.Days()
		req.NotBefore = c.DateRange.Start
		req.NotAfter = c.DateRange.End
	}
	return req
}

// Grid enumerates candidate slots lazily. It holds no iteration state, so
// every call to All starts over.
type Grid struct {
	req  GridRequest
	opts Options
}

func NewGrid(req GridRequest, opts Options) *Grid {
	opts = opts.withDefaults()
	if req.MaxSlots <= 0 {
		req.MaxSlots = opts.MaxSlots
	}
	if req.HorizonDays <= 0 {
		req.HorizonDays = DefaultHorizonDays
	}
	if req.HorizonStart.IsZero() {
		req.HorizonStart = opts.now()
	}
	req.HorizonStart = req.HorizonStart.In(opts.Location)
	return &Grid{req: req, opts: opts}
}

// All yields slots in chronological order, at most MaxSlots of them.
func (g *Grid) All() iter.Seq[entity.CandidateSlot] {
	return func(yield func(entity.CandidateSlot) bool) {
		durMin := int(g.req.Duration / time.Minute)
		if durMin <= 0 {
			return
		}
		step := g.opts.stepMinutes()
		now := g.opts.now()
		today := entity.StartOfDay(now)
		first := entity.StartOfDay(g.req.HorizonStart)

		emitted := 0
		for i := range g.req.HorizonDays {
			day := first.AddDate(0, 0, i)
			if day.Before(today) {
				continue
			}

			floor := entity.Midnight
			if day.Equal(today) {
				var ok bool
				if floor, ok = g.sameDayFloor(now, step); !ok {
					continue
				}
			}

			for _, w := range g.DayWindows(day.Weekday()) {
				start := w.Start
				if g.req.AlignStarts {
					start = start.RoundUp(step)
				}
				start = max(start, floor)
				for c := start; c+entity.ClockTime(durMin) <= w.End; c += entity.ClockTime(step) {
					slotStart := c.On(day)
					slot := entity.CandidateSlot{Start: slotStart, End: slotStart.Add(time.Duration(durMin) * time.Minute)}
					if !g.inBounds(slot) {
						continue
					}
					if g.req.Accept != nil && !g.req.Accept(slot) {
						continue
					}
					if !yield(slot) {
						return
					}
					emitted++
					if emitted >= g.req.MaxSlots {
						return
					}
				}
			}
		}
	}
}

func (g *Grid) inBounds(slot entity.CandidateSlot) bool {
	if !g.req.NotBefore.IsZero() && slot.Start.Before(g.req.NotBefore) {
		return false
	}
	if !g.req.NotAfter.IsZero() && slot.End.After(g.req.NotAfter) {
		return false
	}
	return true
}

// Collect drains All into a slice.
func (g *Grid) Collect() []entity.CandidateSlot {
	return slices.Collect(g.All())
}

// DayWindows returns the windows slots may occupy on weekday d, after
// exclusions, weekend rules and preference narrowing.
func (g *Grid) DayWindows(d time.Weekday) []entity.TimeWindow {
	if g.req.ExcludedDays.Contains(d) {
		return nil
	}
	if entity.IsWeekend(d) && !g.weekendsAllowed() {
		return nil
	}

	narrow, hasNarrow := g.narrowing()
	if g.req.Availability != nil {
		var out []entity.TimeWindow
		for _, w := range g.req.Availability.On(d) {
			if hasNarrow {
				var ok bool
				if w, ok = w.Intersect(narrow); !ok {
					continue
				}
			}
			out = append(out, w)
		}
		return out
	}
	if hasNarrow {
		return []entity.TimeWindow{narrow}
	}
	return []entity.TimeWindow{entity.BusinessHoursWindow}
}

// narrowing resolves the explicit window first, then the preference bucket.
func (g *Grid) narrowing() (entity.TimeWindow, bool) {
	if g.req.Window != nil {
		return *g.req.Window, true
	}
	return g.req.Preference.Window()
}

func (g *Grid) weekendsAllowed() bool {
	return g.req.Window != nil || g.req.AllowWeekends ||
		(g.req.Availability != nil && g.req.Availability.HasWeekend())
}

// sameDayFloor is now plus the lead, rounded up to the step. ok is false when
// that lands past midnight.
func (g *Grid) sameDayFloor(now time.Time, step int) (entity.ClockTime, bool) {
	earliest := now.Add(g.opts.SameDayLead)
	if !entity.SameDay(now, earliest) {
		return 0, false
	}
	c := entity.ClockOf(earliest)
	if earliest.Second() > 0 || earliest.Nanosecond() > 0 {
		c++
	}
	return c.RoundUp(step), true
}
