package ics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"smartschedule/modules/calendar/source"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//smartschedule//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:single-1\r\n" +
	"DTSTAMP:20250301T000000Z\r\n" +
	"DTSTART:20250305T140000Z\r\n" +
	"DTEND:20250305T150000Z\r\n" +
	"SUMMARY:Design review\r\n" +
	"ATTENDEE:mailto:Ana@example.com\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly-1\r\n" +
	"DTSTAMP:20250301T000000Z\r\n" +
	"DTSTART:20250303T090000Z\r\n" +
	"DTEND:20250303T093000Z\r\n" +
	"RRULE:FREQ=WEEKLY;BYDAY=MO\r\n" +
	"EXDATE:20250310T090000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:free-1\r\n" +
	"DTSTAMP:20250301T000000Z\r\n" +
	"DTSTART:20250306T100000Z\r\n" +
	"DTEND:20250306T110000Z\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"SUMMARY:Focus (free)\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:cancelled-1\r\n" +
	"DTSTAMP:20250301T000000Z\r\n" +
	"DTSTART:20250306T120000Z\r\n" +
	"DTEND:20250306T130000Z\r\n" +
	"STATUS:CANCELLED\r\n" +
	"SUMMARY:Cancelled lunch\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var (
	rangeFrom = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rangeTo   = time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC)
)

func TestParseExpandsRecurrence(t *testing.T) {
	events, err := Parse(strings.NewReader(sampleCalendar), "ics", rangeFrom, rangeTo)
	require.NoError(t, err)

	byTitle := map[string][]time.Time{}
	for _, e := range events {
		byTitle[e.Title] = append(byTitle[e.Title], e.Start.UTC())
		assert.Equal(t, "ics", e.Source)
	}

	require.Len(t, byTitle["Design review"], 1)
	assert.Equal(t, time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC), byTitle["Design review"][0])

	assert.Equal(t, []time.Time{
		time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 24, 9, 0, 0, 0, time.UTC),
	}, byTitle["Standup"])

	assert.NotContains(t, byTitle, "Focus (free)")
	assert.NotContains(t, byTitle, "Cancelled lunch")
}

func TestParseOccurrenceIDsAreUnique(t *testing.T) {
	events, err := Parse(strings.NewReader(sampleCalendar), "ics", rangeFrom, rangeTo)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, e := range events {
		assert.False(t, seen[e.ID], e.ID)
		seen[e.ID] = true
		assert.True(t, e.End.After(e.Start))
	}
}

func TestParseAttendees(t *testing.T) {
	events, err := Parse(strings.NewReader(sampleCalendar), "ics", rangeFrom, rangeTo)
	require.NoError(t, err)
	for _, e := range events {
		if e.ID == "single-1" {
			assert.Equal(t, []string{"ana@example.com"}, e.Attendees)
			return
		}
	}
	t.Fatal("single-1 not returned")
}

func TestParseRangeFilter(t *testing.T) {
	from := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	events, err := Parse(strings.NewReader(sampleCalendar), "ics", from, to)
	require.NoError(t, err)
	assert.Empty(t, events, "single event is before the range and the only Monday is excluded")
}

type fakeObjects struct {
	body string
	err  error
	key  string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.key = *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(f.body))}, nil
}

func TestS3SourceReadsUserObject(t *testing.T) {
	objects := &fakeObjects{body: sampleCalendar}
	src := NewS3Source(objects, "calendars-bucket", "feeds")

	events, err := src.ListEvents(context.Background(), "user-1", rangeFrom, rangeTo)
	require.NoError(t, err)
	assert.Equal(t, "feeds/user-1.ics", objects.key)
	assert.Len(t, events, 4)
}

func TestS3SourceMissingObject(t *testing.T) {
	src := NewS3Source(&fakeObjects{err: &types.NoSuchKey{}}, "b", "p")
	_, err := src.ListEvents(context.Background(), "user-1", rangeFrom, rangeTo)
	assert.ErrorIs(t, err, source.ErrNotConnected)

	src = NewS3Source(&fakeObjects{err: errors.New("access denied")}, "b", "p")
	_, err = src.ListEvents(context.Background(), "user-1", rangeFrom, rangeTo)
	require.Error(t, err)
	assert.NotErrorIs(t, err, source.ErrNotConnected)
}
