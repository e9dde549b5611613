package engine

import (
	"time"

	"smartschedule/modules/matching/entity"
)

// BookableSlot is the meeting portion of a fallback result, buffers excluded.
type BookableSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type FallbackRequest struct {
	// Parties are the declared weekly availabilities to intersect.
	Parties      []entity.WeeklyAvailability
	Constraints  entity.Constraints
	HorizonStart time.Time
	HorizonDays  int
	// Busy, when present, removes slots whose buffered span overlaps an event.
	Busy     []entity.CalendarEvent
	MaxSlots int
}

// FallbackSearch finds slots inside everyone's declared availability without
// consulting any calendar provider. The grid searches the buffered span and
// only the inner meeting portion is reported, in UTC.
func FallbackSearch(req FallbackRequest, opts Options) []BookableSlot {
	if len(req.Parties) == 0 || req.Constraints.DurationMinutes <= 0 {
		return nil
	}

	shared := req.Parties[0].Normalize()
	for _, p := range req.Parties[1:] {
		shared = shared.Intersect(p.Normalize())
	}
	if len(shared) == 0 {
		return nil
	}

	before := req.Constraints.TravelBuffer.Before()
	after := req.Constraints.TravelBuffer.After()
	meeting := req.Constraints.Duration()

	grid := GridFromConstraints(req.Constraints, req.HorizonStart, req.HorizonDays)
	grid.Duration = before + meeting + after
	grid.Availability = shared
	grid.AlignStarts = true
	grid.MaxSlots = req.MaxSlots
	if grid.MaxSlots <= 0 {
		grid.MaxSlots = DefaultMaxSlots
	}
	if len(req.Busy) > 0 {
		grid.Accept = func(s entity.CandidateSlot) bool {
			for _, e := range req.Busy {
				if e.Valid() && e.Overlaps(s.Start, s.End) {
					return false
				}
			}
			return true
		}
	}

	out := make([]BookableSlot, 0, grid.MaxSlots)
	for slot := range NewGrid(grid, opts).All() {
		start := slot.Start.Add(before)
		out = append(out, BookableSlot{Start: start.UTC(), End: start.Add(meeting).UTC()})
	}
	return out
}
