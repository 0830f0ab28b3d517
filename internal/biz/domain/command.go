package domain

import "github.com/google/uuid"

// SendGreetingCommand asks a view to open a match's chat and send a greeting
type SendGreetingCommand struct {
	ID       string // Correlation ID, only used for tracing
	MatchID  string
	Greeting string
}

// NewSendGreetingCommand creates a command with a fresh correlation ID
func NewSendGreetingCommand(matchID, greeting string) SendGreetingCommand {
	return SendGreetingCommand{
		ID:       uuid.NewString(),
		MatchID:  matchID,
		Greeting: greeting,
	}
}
