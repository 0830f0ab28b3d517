package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/logging"
)

const (
	DefaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"
	calendarTimeout        = 30 * time.Second
)

// BookingError is returned when the calendar service rejects an event
type BookingError struct {
	Status int
	Body   string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("calendar API error (status %d): %s", e.Status, e.Body)
}

type calendarDateTime struct {
	DateTime string `json:"dateTime"`
}

// calendarEventPayload is the wire form of an event insert
type calendarEventPayload struct {
	Summary     string           `json:"summary"`
	Location    string           `json:"location"`
	Start       calendarDateTime `json:"start"`
	End         calendarDateTime `json:"end"`
	Description string           `json:"description"`
}

func newCalendarEventPayload(event domain.CalendarEvent) calendarEventPayload {
	return calendarEventPayload{
		Summary:     event.Title,
		Location:    event.Location,
		Start:       calendarDateTime{DateTime: event.Start.UTC().Format(time.RFC3339)},
		End:         calendarDateTime{DateTime: event.End.UTC().Format(time.RFC3339)},
		Description: event.Description,
	}
}

// calendarRepo inserts events into the primary calendar
type calendarRepo struct {
	baseURL string
	tokens  repo.TokenBroker
	http    *http.Client
	log     *logging.Logger
}

// NewCalendarRepo creates a calendar repository
func NewCalendarRepo(baseURL string, tokens repo.TokenBroker) repo.CalendarRepo {
	if baseURL == "" {
		baseURL = DefaultCalendarBaseURL
	}
	return &calendarRepo{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: calendarTimeout},
		log:     logging.New("Calendar"),
	}
}

// Book creates the event
func (r *calendarRepo) Book(ctx context.Context, clientID string, event domain.CalendarEvent) error {
	token, err := r.tokens.Token(ctx, clientID)
	if err != nil {
		return fmt.Errorf("get calendar token: %w", err)
	}

	body, err := json.Marshal(newCalendarEventPayload(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/calendars/primary/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BookingError{Status: resp.StatusCode, Body: string(respBody)}
	}

	r.log.Infof("Event created: %s at %s", event.Title, event.Start.Format(time.RFC3339))
	return nil
}
