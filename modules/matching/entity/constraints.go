package entity

import (
	"errors"
	"fmt"
	"time"
)

const DefaultDurationMinutes = 60

type TravelBuffer struct {
	BeforeMinutes int `json:"before_minutes"`
	AfterMinutes  int `json:"after_minutes"`
}

func (b *TravelBuffer) Before() time.Duration {
	if b == nil {
		return 0
	}
	return time.Duration(b.BeforeMinutes) * time.Minute
}

func (b *TravelBuffer) After() time.Duration {
	if b == nil {
		return 0
	}
	return time.Duration(b.AfterMinutes) * time.Minute
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days the range touches, at least 1.
func (r DateRange) Days() int {
	n := 0
	for d := StartOfDay(r.Start); d.Before(r.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return max(n, 1)
}

// Constraints is the structured form of a scheduling request.
type Constraints struct {
	DurationMinutes int           `json:"duration_minutes"`
	TimeWindow      *TimeWindow   `json:"time_window,omitempty"`
	PreferredTime   TimeOfDay     `json:"preferred_time,omitempty"`
	AvoidDays       WeekdayList   `json:"avoid_days,omitempty"`
	TravelBuffer    *TravelBuffer `json:"travel_buffer,omitempty"`
	DateRange       *DateRange    `json:"date_range,omitempty"`
	Location        string        `json:"location,omitempty"`
}

func (c Constraints) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// EffectiveWindow resolves the explicit window first, then the preference bucket.
func (c Constraints) EffectiveWindow() (TimeWindow, bool) {
	if c.TimeWindow != nil {
		return *c.TimeWindow, true
	}
	return c.PreferredTime.Window()
}

// Validate rejects constraints that cannot describe any meeting.
func (c Constraints) Validate() error {
	var errs []error
	if c.DurationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("duration_minutes must be positive, got %d", c.DurationMinutes))
	}
	if c.TimeWindow != nil {
		if err := c.TimeWindow.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("time_window: %w", err))
		}
	}
	if !c.PreferredTime.Valid() {
		errs = append(errs, fmt.Errorf("preferred_time %q is not morning, afternoon or evening", c.PreferredTime))
	}
	if c.DateRange != nil && !c.DateRange.Start.Before(c.DateRange.End) {
		errs = append(errs, errors.New("date_range: start must be before end"))
	}
	if c.TravelBuffer != nil && (c.TravelBuffer.BeforeMinutes < 0 || c.TravelBuffer.AfterMinutes < 0) {
		errs = append(errs, errors.New("travel_buffer: minutes must not be negative"))
	}
	return errors.Join(errs...)
}
