package dom

import (
	"fmt"
	"strings"
)

// SelectorConfig holds the CSS selectors for the dating web app's markup
type SelectorConfig struct {
	MatchRoot        string `yaml:"match_root"`
	MatchEntry       string `yaml:"match_entry"`
	ConversationRoot string `yaml:"conversation_root"`
	Conversation     string `yaml:"conversation"`
	MessageList      string `yaml:"message_list"`
	MessageText      string `yaml:"message_text"`
	IncomingMessage  string `yaml:"incoming_message"`
	MessageInput     string `yaml:"message_input"`
	SendButton       string `yaml:"send_button"`
	LikeButton       string `yaml:"like_button"`

	// MatchIDAttr carries the match identifier on entries and conversations
	MatchIDAttr string `yaml:"match_id_attr"`
}

// DefaultSelectorConfig matches the markup the agent was built against
var DefaultSelectorConfig = SelectorConfig{
	MatchRoot:        "div[aria-label='Matches']",
	MatchEntry:       "[data-testid='matchListItem']",
	ConversationRoot: "body",
	Conversation:     "div[aria-label='Conversation']",
	MessageList:      "div[aria-label='Message list']",
	MessageText:      "span[dir='auto']",
	IncomingMessage:  "div[aria-label='Incoming message']",
	MessageInput:     "textarea",
	SendButton:       "button[aria-label='Send']",
	LikeButton:       "button[aria-label='Like']",
	MatchIDAttr:      "data-match-id",
}

// WithDefaults fills empty fields from DefaultSelectorConfig
func (c SelectorConfig) WithDefaults() SelectorConfig {
	d := DefaultSelectorConfig
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&c.MatchRoot, d.MatchRoot)
	fill(&c.MatchEntry, d.MatchEntry)
	fill(&c.ConversationRoot, d.ConversationRoot)
	fill(&c.Conversation, d.Conversation)
	fill(&c.MessageList, d.MessageList)
	fill(&c.MessageText, d.MessageText)
	fill(&c.IncomingMessage, d.IncomingMessage)
	fill(&c.MessageInput, d.MessageInput)
	fill(&c.SendButton, d.SendButton)
	fill(&c.LikeButton, d.LikeButton)
	fill(&c.MatchIDAttr, d.MatchIDAttr)
	return c
}

// MatchItem returns the selector of the element carrying the given match id
func (c SelectorConfig) MatchItem(matchID string) string {
	return fmt.Sprintf(`[%s="%s"]`, c.MatchIDAttr, escapeAttrValue(matchID))
}

func escapeAttrValue(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
}

// Selectors is the compiled form of a SelectorConfig
type Selectors struct {
	Config SelectorConfig

	MatchEntry      Selector
	Conversation    Selector
	MessageList     Selector
	MessageText     Selector
	IncomingMessage Selector
}

// Compile validates every selector and compiles the ones matched in Go
func (c SelectorConfig) Compile() (*Selectors, error) {
	c = c.WithDefaults()

	// Selectors only evaluated by the page still have to parse
	for _, raw := range []string{c.MatchRoot, c.ConversationRoot, c.MessageInput, c.SendButton, c.LikeButton} {
		if _, err := Compile(raw); err != nil {
			return nil, err
		}
	}

	s := &Selectors{Config: c}
	targets := []struct {
		dst *Selector
		raw string
	}{
		{&s.MatchEntry, c.MatchEntry},
		{&s.Conversation, c.Conversation},
		{&s.MessageList, c.MessageList},
		{&s.MessageText, c.MessageText},
		{&s.IncomingMessage, c.IncomingMessage},
	}
	for _, t := range targets {
		sel, err := Compile(t.raw)
		if err != nil {
			return nil, err
		}
		*t.dst = sel
	}
	return s, nil
}

// MustDefaultSelectors compiles DefaultSelectorConfig
func MustDefaultSelectors() *Selectors {
	s, err := DefaultSelectorConfig.Compile()
	if err != nil {
		panic(err)
	}
	return s
}
