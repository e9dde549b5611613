package parser

import (
	"encoding/json"
	"testing"
	"time"

	"smartschedule/modules/matching/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wednesday
var parserNow = time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)

func newTestParser() *KeywordParser {
	return NewKeywordParser(time.UTC, func() time.Time { return parserNow })
}

func TestParseAvoidDurationWindow(t *testing.T) {
	c := newTestParser().Parse("avoid tue and thu, 30 min, between 11:00-13:00")

	assert.Equal(t, entity.WeekdayList{time.Tuesday, time.Thursday}, c.AvoidDays)
	assert.Equal(t, 30, c.DurationMinutes)
	require.NotNil(t, c.TimeWindow)
	assert.Equal(t, entity.MustTimeWindow("11:00", "13:00"), *c.TimeWindow)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"duration_minutes": 30,
		"avoid_days": ["tuesday", "thursday"],
		"time_window": {"start": "11:00", "end": "13:00"}
	}`, string(data))
}

func TestParseTimeOfDay(t *testing.T) {
	p := newTestParser()
	assert.Equal(t, entity.TimeOfDayMorning, p.Parse("Quick sync Morning please").PreferredTime)
	assert.Equal(t, entity.TimeOfDayAfternoon, p.Parse("afternoon or evening").PreferredTime)
	assert.Equal(t, entity.TimeOfDayEvening, p.Parse("drinks tonight").PreferredTime)
	assert.Equal(t, entity.TimeOfDayAny, p.Parse("whenever works").PreferredTime)
}

func TestParseWindowOverridesPreference(t *testing.T) {
	c := newTestParser().Parse("morning, between 2 and 4")
	require.NotNil(t, c.TimeWindow)
	assert.Equal(t, entity.MustTimeWindow("14:00", "16:00"), *c.TimeWindow)
	assert.Equal(t, entity.TimeOfDayAny, c.PreferredTime)
}

func TestParseBetween(t *testing.T) {
	cases := map[string]string{
		"between 9am and 11am":     "09:00-11:00",
		"between 1-3pm":            "13:00-15:00",
		"from 10am to 2pm":         "10:00-14:00",
		"between 11-1":             "11:00-13:00",
		"from 9 to 5":              "09:00-17:00",
		"between 9:30 and 10:15":   "09:30-10:15",
		"between 11:00-13:00":      "11:00-13:00",
		"between 12pm and 1:30 pm": "12:00-13:30",
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			w, ok := parseBetween(text)
			require.True(t, ok)
			assert.Equal(t, want, w.String())
		})
	}

	for _, text := range []string{"between us", "between 10pm and 12am", "between 9:75 and 10"} {
		_, ok := parseBetween(text)
		assert.False(t, ok, text)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"30 min":           30,
		"a 30m chat":       30,
		"half an hour":     30,
		"60 minutes":       60,
		"1h":               60,
		"an hour":          60,
		"90 min":           90,
		"1.5h":             90,
		"2h deep dive":     120,
		"2 hours":          120,
		"45 min":           45,
		"3 hours":          180,
		"8 hours":          480,
		"call in 48 hours": entity.DefaultDurationMinutes,
		"600 minutes":      entity.DefaultDurationMinutes,
		"some time":        entity.DefaultDurationMinutes,
		"between 1 and 2":  entity.DefaultDurationMinutes,
	}
	for text, want := range cases {
		assert.Equal(t, want, parseDuration(text), text)
	}
}

func TestParseAvoidDays(t *testing.T) {
	cases := map[string]entity.WeekdayList{
		"avoid mondays":                 {time.Monday},
		"except Fri":                    {time.Friday},
		"skip the weekend":              {time.Saturday, time.Sunday},
		"not on wednesday or friday":    {time.Wednesday, time.Friday},
		"avoid thursday, mornings only": {time.Thursday},
		"monday works":                  nil,
	}
	for text, want := range cases {
		c := newTestParser().Parse(text)
		assert.Equal(t, want, c.AvoidDays, text)
	}
}

func TestParseDateRange(t *testing.T) {
	p := newTestParser()
	today := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	c := p.Parse("today")
	require.NotNil(t, c.DateRange)
	assert.Equal(t, today, c.DateRange.Start)
	assert.Equal(t, today.AddDate(0, 0, 1), c.DateRange.End)

	c = p.Parse("tomorrow afternoon")
	require.NotNil(t, c.DateRange)
	assert.Equal(t, today.AddDate(0, 0, 1), c.DateRange.Start)

	c = p.Parse("sometime this week")
	require.NotNil(t, c.DateRange)
	assert.Equal(t, today, c.DateRange.Start)
	assert.Equal(t, monday, c.DateRange.End)

	c = p.Parse("tomorrow or next week")
	require.NotNil(t, c.DateRange)
	assert.Equal(t, monday, c.DateRange.Start)
	assert.Equal(t, monday.AddDate(0, 0, 7), c.DateRange.End)

	assert.Nil(t, p.Parse("whenever").DateRange)
}

func TestParseLocation(t *testing.T) {
	p := newTestParser()

	c := p.Parse("coffee in SoMa")
	assert.Equal(t, "soma", c.Location)
	require.NotNil(t, c.TravelBuffer)
	assert.Equal(t, 30, c.TravelBuffer.BeforeMinutes)
	assert.Equal(t, 30, c.TravelBuffer.AfterMinutes)

	assert.Equal(t, "financial-district", p.Parse("meet in the financial district").Location)
	assert.Equal(t, "financial-district", p.Parse("fidi lunch").Location)
	assert.Equal(t, InPersonLocation, p.Parse("let's meet up").Location)

	c = p.Parse("zoom call")
	assert.Empty(t, c.Location)
	assert.Nil(t, c.TravelBuffer)
}

func TestParseNeverFails(t *testing.T) {
	p := newTestParser()
	for _, text := range []string{"", "   ", "???", "avoid", "between", "between 99 and 100"} {
		c := p.Parse(text)
		assert.Equal(t, entity.DefaultDurationMinutes, c.DurationMinutes, text)
		assert.NoError(t, c.Validate(), text)
	}
}
