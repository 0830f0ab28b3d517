package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// EventTitle is the summary used for booked meetings
	EventTitle = "Match Date"
	// EventDuration is the default length of a booked meeting
	EventDuration = time.Hour
)

// CalendarEvent is the booking request derived from a MeetingCommitment
type CalendarEvent struct {
	Title       string
	Location    string
	Start       time.Time
	End         time.Time
	Description string
}

// NewCalendarEvent converts a commitment into a one hour UTC event.
// The end is computed by bumping the hour field and letting time.Date
// normalise the overflow, so 23:30 ends at 00:30 the next day.
func NewCalendarEvent(c MeetingCommitment, matchID string) CalendarEvent {
	year, month, day := splitInts3(c.Date, "-")
	hour, minute := splitInts2(c.Time, ":")

	start := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month), day, hour+1, minute, 0, 0, time.UTC)

	return CalendarEvent{
		Title:       EventTitle,
		Location:    c.Location,
		Start:       start,
		End:         end,
		Description: fmt.Sprintf("Auto-added date for match %s.", matchID),
	}
}

func splitInts3(s, sep string) (int, int, int) {
	parts := strings.SplitN(s, sep, 3)
	vals := make([]int, 3)
	for i, p := range parts {
		vals[i], _ = strconv.Atoi(strings.TrimSpace(p))
	}
	return vals[0], vals[1], vals[2]
}

func splitInts2(s, sep string) (int, int) {
	parts := strings.SplitN(s, sep, 2)
	vals := make([]int, 2)
	for i, p := range parts {
		vals[i], _ = strconv.Atoi(strings.TrimSpace(p))
	}
	return vals[0], vals[1]
}
