package usecase

import "strings"

// Template placeholders
const (
	PlaceholderMatchName    = "{{match_name}}"
	PlaceholderConversation = "{{conversation}}"
)

// PromptConfig contains the prompt templates sent to the generation service
type PromptConfig struct {
	GreetingTemplate   string // supports {{match_name}}
	ExtractionTemplate string // supports {{conversation}}
}

// DefaultPromptConfig contains default prompt configuration
var DefaultPromptConfig = PromptConfig{
	GreetingTemplate: "You are a friendly, witty dating app user. " +
		"Write a short icebreaker message to someone named {{match_name}}.",
	ExtractionTemplate: `
You are an AI that extracts date/time commitments from dating app conversations.
Given the conversation below, identify if the match has agreed to meet in person.
If yes, respond with a JSON string exactly in this format:
{"date":"YYYY-MM-DD","time":"HH:MM","location":"LOCATION_IF_ANY"}
If no meeting is set, reply with {"date":null}.
Conversation:
{{conversation}}
`,
}

// GreetingPrompt renders the greeting template for a match
func (c PromptConfig) GreetingPrompt(matchName string) string {
	return strings.ReplaceAll(c.GreetingTemplate, PlaceholderMatchName, matchName)
}

// ExtractionPrompt renders the extraction template for a transcript
func (c PromptConfig) ExtractionPrompt(transcript string) string {
	return strings.ReplaceAll(c.ExtractionTemplate, PlaceholderConversation, transcript)
}

// WithDefaults fills empty templates from DefaultPromptConfig
func (c PromptConfig) WithDefaults() PromptConfig {
	if c.GreetingTemplate == "" {
		c.GreetingTemplate = DefaultPromptConfig.GreetingTemplate
	}
	if c.ExtractionTemplate == "" {
		c.ExtractionTemplate = DefaultPromptConfig.ExtractionTemplate
	}
	return c
}
