// Package ics reads iCalendar feeds into busy events, expanding recurring
// events over the requested range.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"smartschedule/core/logger"
	"smartschedule/modules/matching/entity"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// MaxOccurrencesPerEvent bounds recurrence expansion for a single VEVENT.
const MaxOccurrencesPerEvent = 500

const icsDateTime = "20060102T150405"

// Parse reads an ICS payload and returns events overlapping [from, to).
// Cancelled and transparent (free) events are skipped. name tags each event's
// Source. Events that fail to parse are logged and skipped.
func Parse(r io.Reader, name string, from, to time.Time) ([]entity.CalendarEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var out []entity.CalendarEvent
	for _, ve := range cal.Events() {
		events, err := expand(ve, name, from, to)
		if err != nil {
			logger.Warn("ICS:Parse:SkipEvent", "source", name, "error", err)
			continue
		}
		out = append(out, events...)
	}
	return out, nil
}

func expand(ve *ical.VEvent, name string, from, to time.Time) ([]entity.CalendarEvent, error) {
	if !busy(ve) {
		return nil, nil
	}

	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return nil, errors.New("missing UID")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("%s: DTSTART: %w", uid, err)
	}
	end, err := ve.GetEndAt()
	if err != nil || !end.After(start) {
		end = start.Add(time.Hour)
	}
	length := end.Sub(start)

	base := entity.CalendarEvent{
		ID:       uid,
		Title:    propValue(ve, ical.ComponentPropertySummary),
		Category: entity.CategoryMeeting,
		Source:   name,
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		base.Attendees = append(base.Attendees, strings.TrimPrefix(strings.ToLower(p.Value), "mailto:"))
	}

	raw := propValue(ve, ical.ComponentPropertyRrule)
	if raw == "" {
		if start.Before(to) && end.After(from) {
			base.Start, base.End = start, end
			return []entity.CalendarEvent{base}, nil
		}
		return nil, nil
	}

	rule, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: RRULE %q: %w", uid, raw, err)
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range exDates(ve, start.Location()) {
		set.ExDate(ex)
	}

	// widen by the event length so occurrences already running at from are kept
	occurrences := set.Between(from.Add(-length), to, false)
	if len(occurrences) > MaxOccurrencesPerEvent {
		occurrences = occurrences[:MaxOccurrencesPerEvent]
	}

	out := make([]entity.CalendarEvent, 0, len(occurrences))
	for _, occ := range occurrences {
		e := base
		e.ID = fmt.Sprintf("%s/%s", uid, occ.UTC().Format(icsDateTime))
		e.Start, e.End = occ, occ.Add(length)
		if e.End.After(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

// busy is false for cancelled events and those marked TRANSP:TRANSPARENT.
func busy(ve *ical.VEvent) bool {
	if strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), "CANCELLED") {
		return false
	}
	return !strings.EqualFold(propValue(ve, ical.ComponentPropertyTransp), "TRANSPARENT")
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// exDates reads EXDATE values. Floating and TZID-qualified values are read in loc.
func exDates(ve *ical.VEvent, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			var (
				t   time.Time
				err error
			)
			switch {
			case strings.HasSuffix(part, "Z"):
				t, err = time.Parse(icsDateTime+"Z", part)
			case strings.Contains(part, "T"):
				t, err = time.ParseInLocation(icsDateTime, part, loc)
			default:
				t, err = time.ParseInLocation("20060102", part, loc)
			}
			if err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}
