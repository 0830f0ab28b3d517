package domain

import "time"

// Match represents a mutual connection seen in the match list
type Match struct {
	ID   string
	Name string
}

// ConversationWatch tracks whether a conversation's message list is observed.
// Once Watched is true it never goes back.
type ConversationWatch struct {
	ConversationID string
	Watched        bool
}

// IdentifierSet names one of the append-only dedup sets
type IdentifierSet string

const (
	SetMatches       IdentifierSet = "matches"
	SetConversations IdentifierSet = "conversations"
	SetGreetings     IdentifierSet = "greetings"
)

// Valid reports whether s is a known set
func (s IdentifierSet) Valid() bool {
	switch s {
	case SetMatches, SetConversations, SetGreetings:
		return true
	}
	return false
}

// SeenIdentifier is an entry in the dedup store
type SeenIdentifier struct {
	Set    IdentifierSet
	ID     string
	Label  string // Display name for matches, empty otherwise
	SeenAt time.Time
}
