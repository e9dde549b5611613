// Package parser turns free-text scheduling requests into Constraints.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"smartschedule/modules/matching/entity"

	"github.com/gosimple/slug"
)

// Parser converts text to constraints. Implementations never fail: text they
// do not understand yields fewer constraints.
type Parser interface {
	Parse(text string) entity.Constraints
}

const (
	InPersonLocation    = "in-person"
	travelBufferMinutes = 30
)

// maxGenericMinutes caps free-form durations; "in 48 hours" is a deadline.
const maxGenericMinutes = 8 * 60

var (
	timeOfDayRe = regexp.MustCompile(`\b(morning|afternoon|evening|tonight)\b`)
	avoidRe     = regexp.MustCompile(`\b(avoid|avoiding|except|excluding|skip|not on)\b`)
	tokenRe     = regexp.MustCompile(`[a-z]+|\d+|[^\sa-z\d]`)

	betweenRe = regexp.MustCompile(`\b(?:between|from)\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*(?:-|–|to|and)\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)

	durationRules = []struct {
		re      *regexp.Regexp
		minutes int
	}{
		{regexp.MustCompile(`\b(2\s*h|2\s*hrs?|2\s*hours?|two hours|120\s*(m|mins?|minutes?))\b`), 120},
		{regexp.MustCompile(`\b(1\.5\s*h|1\.5\s*hrs?|1\.5\s*hours?|90\s*(m|mins?|minutes?))\b|hour and a half`), 90},
		{regexp.MustCompile(`\b(30\s*(m|mins?|minutes?)|half an hour|half hour)\b`), 30},
		{regexp.MustCompile(`\b(60\s*(m|mins?|minutes?)|1\s*h|1\s*hrs?|1\s*hours?|an hour|one hour|hour)\b`), 60},
	}
	genericMinutesRe = regexp.MustCompile(`\b(\d{1,3})\s*(m|mins?|minutes?)\b`)
	genericHoursRe   = regexp.MustCompile(`\b(\d{1,2}(?:\.\d+)?)\s*(h|hrs?|hours?)\b`)

	dateRules = []struct {
		re     *regexp.Regexp
		anchor dateAnchor
	}{
		{regexp.MustCompile(`\btoday\b`), anchorToday},
		{regexp.MustCompile(`\btomorrow\b`), anchorTomorrow},
		{regexp.MustCompile(`\bthis week\b`), anchorThisWeek},
		{regexp.MustCompile(`\bnext week\b`), anchorNextWeek},
	}

	neighbourhoods = []struct {
		re   *regexp.Regexp
		name string
	}{
		{regexp.MustCompile(`\bsoma\b`), "SoMa"},
		{regexp.MustCompile(`\bmission\b`), "Mission"},
		{regexp.MustCompile(`\b(financial district|fidi)\b`), "Financial District"},
	}
	inPersonRe = regexp.MustCompile(`\b(in[\s-]person|meet\s?up|coffee|lunch|dinner)\b`)

	avoidConnectors = map[string]bool{
		"and": true, "or": true, "on": true, "the": true, "nor": true,
		",": true, "/": true, "&": true, "+": true,
	}
)

type dateAnchor int

const (
	anchorToday dateAnchor = iota
	anchorTomorrow
	anchorThisWeek
	anchorNextWeek
)

// KeywordParser is the default rule-based Parser.
type KeywordParser struct {
	loc *time.Location
	now func() time.Time
}

func NewKeywordParser(loc *time.Location, now func() time.Time) *KeywordParser {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &KeywordParser{loc: loc, now: now}
}

func (p *KeywordParser) Parse(text string) entity.Constraints {
	lower := strings.ToLower(text)

	c := entity.Constraints{
		DurationMinutes: parseDuration(lower),
		PreferredTime:   parseTimeOfDay(lower),
		AvoidDays:       parseAvoidDays(lower),
	}
	if w, ok := parseBetween(lower); ok {
		c.TimeWindow = &w
		c.PreferredTime = entity.TimeOfDayAny
	}
	c.DateRange = p.parseDateRange(lower)
	c.Location, c.TravelBuffer = parseLocation(lower)
	return c
}

func parseTimeOfDay(s string) entity.TimeOfDay {
	switch timeOfDayRe.FindString(s) {
	case "morning":
		return entity.TimeOfDayMorning
	case "afternoon":
		return entity.TimeOfDayAfternoon
	case "evening", "tonight":
		return entity.TimeOfDayEvening
	}
	return entity.TimeOfDayAny
}

// parseAvoidDays reads weekday names after each avoid keyword until a token
// that is neither a weekday nor a connector.
func parseAvoidDays(s string) entity.WeekdayList {
	var days entity.WeekdayList
	for _, loc := range avoidRe.FindAllStringIndex(s, -1) {
		for _, tok := range tokenRe.FindAllString(s[loc[1]:], -1) {
			if avoidConnectors[tok] {
				continue
			}
			if tok == "weekend" || tok == "weekends" {
				days = append(days, time.Saturday, time.Sunday)
				continue
			}
			d, ok := entity.ParseWeekday(tok)
			if !ok {
				d, ok = entity.ParseWeekday(strings.TrimSuffix(tok, "s"))
			}
			if !ok {
				break
			}
			days = append(days, d)
		}
	}
	return days.Normalize()
}

func parseDuration(s string) int {
	for _, rule := range durationRules {
		if rule.re.MatchString(s) {
			return rule.minutes
		}
	}
	if m := genericMinutesRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= maxGenericMinutes {
			return n
		}
	}
	if m := genericHoursRe.FindStringSubmatch(s); m != nil {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil && h > 0 && h*60 <= maxGenericMinutes {
			return int(h * 60)
		}
	}
	return entity.DefaultDurationMinutes
}

// parseBetween reads "between H(:MM)(am|pm) - H(:MM)(am|pm)". Without a
// meridiem, hours 1-6 are read as afternoon and an end before the start is
// moved twelve hours later.
func parseBetween(s string) (entity.TimeWindow, bool) {
	m := betweenRe.FindStringSubmatch(s)
	if m == nil {
		return entity.TimeWindow{}, false
	}
	startH, _ := strconv.Atoi(m[1])
	startM := atoiOr(m[2], 0)
	endH, _ := strconv.Atoi(m[4])
	endM := atoiOr(m[5], 0)
	startMer, endMer := m[3], m[6]
	if startM > 59 || endM > 59 {
		return entity.TimeWindow{}, false
	}

	if startMer == "" && endMer != "" {
		// "1-3pm" shares the trailing meridiem
		if h := to24(startH, endMer); h <= to24(endH, endMer) {
			startMer = endMer
		}
	}

	start := hourWithMeridiem(startH, startMer)
	end := hourWithMeridiem(endH, endMer)

	w := entity.TimeWindow{Start: entity.NewClockTime(start, startM), End: entity.NewClockTime(end, endM)}
	if w.End <= w.Start && endMer == "" && end < 12 {
		w.End += 12 * 60
	}
	if w.Validate() != nil {
		return entity.TimeWindow{}, false
	}
	return w, true
}

func hourWithMeridiem(h int, meridiem string) int {
	if meridiem != "" {
		return to24(h, meridiem)
	}
	if h >= 1 && h <= 6 {
		return h + 12
	}
	return h
}

func to24(h int, meridiem string) int {
	switch meridiem {
	case "am":
		if h == 12 {
			return 0
		}
	case "pm":
		if h < 12 {
			return h + 12
		}
	}
	return h
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// parseDateRange applies the anchors in order; a later match overrides an earlier one.
func (p *KeywordParser) parseDateRange(s string) *entity.DateRange {
	today := entity.StartOfDay(p.now().In(p.loc))
	daysToMonday := (8 - int(today.Weekday())) % 7
	if daysToMonday == 0 {
		daysToMonday = 7
	}
	nextMonday := today.AddDate(0, 0, daysToMonday)

	var out *entity.DateRange
	for _, rule := range dateRules {
		if !rule.re.MatchString(s) {
			continue
		}
		switch rule.anchor {
		case anchorToday:
			out = &entity.DateRange{Start: today, End: today.AddDate(0, 0, 1)}
		case anchorTomorrow:
			out = &entity.DateRange{Start: today.AddDate(0, 0, 1), End: today.AddDate(0, 0, 2)}
		case anchorThisWeek:
			out = &entity.DateRange{Start: today, End: nextMonday}
		case anchorNextWeek:
			out = &entity.DateRange{Start: nextMonday, End: nextMonday.AddDate(0, 0, 7)}
		}
	}
	return out
}

// parseLocation returns a slugged neighbourhood tag, or "in-person" for a bare
// in-person cue. Either adds a travel buffer on both sides.
func parseLocation(s string) (string, *entity.TravelBuffer) {
	for _, n := range neighbourhoods {
		if n.re.MatchString(s) {
			return slug.Make(n.name), newTravelBuffer()
		}
	}
	if inPersonRe.MatchString(s) {
		return InPersonLocation, newTravelBuffer()
	}
	return "", nil
}

func newTravelBuffer() *entity.TravelBuffer {
	return &entity.TravelBuffer{BeforeMinutes: travelBufferMinutes, AfterMinutes: travelBufferMinutes}
}
