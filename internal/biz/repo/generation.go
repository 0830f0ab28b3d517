package repo

import "context"

// GenerationRepo is the generative text service
type GenerationRepo interface {
	// Generate returns the first candidate's text.
	// Failures of any kind yield an empty string, never an error.
	Generate(ctx context.Context, apiKey, prompt string) string
}
