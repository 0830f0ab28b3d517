package domain

// EventType represents the event type
type EventType string

const (
	EventTypeNewMatch        EventType = "new_match"
	EventTypeIncomingMessage EventType = "incoming_message"
)

// Event is emitted by the document observer of one view
type Event struct {
	Type   EventType
	ViewID string
	Data   interface{}
}

// NewMatchData is the payload of EventTypeNewMatch
type NewMatchData struct {
	MatchID   string
	MatchName string
}

// IncomingMessageData is the payload of EventTypeIncomingMessage.
// Transcript holds every visible message of the conversation, one per line.
type IncomingMessageData struct {
	ConversationID string
	Transcript     string
}

// NewMatchEvent builds a new-match event
func NewMatchEvent(viewID, matchID, matchName string) Event {
	return Event{
		Type:   EventTypeNewMatch,
		ViewID: viewID,
		Data:   &NewMatchData{MatchID: matchID, MatchName: matchName},
	}
}

// IncomingMessageEvent builds an incoming-message event
func IncomingMessageEvent(viewID, conversationID, transcript string) Event {
	return Event{
		Type:   EventTypeIncomingMessage,
		ViewID: viewID,
		Data:   &IncomingMessageData{ConversationID: conversationID, Transcript: transcript},
	}
}
