package repo

import (
	"context"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
)

// CalendarRepo books events on the user's primary calendar
type CalendarRepo interface {
	// Book creates the event. A non-2xx response is returned as an error
	// carrying the response body.
	Book(ctx context.Context, clientID string, event domain.CalendarEvent) error
}

// TokenBroker hands out OAuth bearer tokens for the calendar service.
// Token may block on an interactive consent flow.
type TokenBroker interface {
	Token(ctx context.Context, clientID string) (string, error)
}
