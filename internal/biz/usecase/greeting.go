package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
)

// ErrNoCredentials is returned when the credential a step needs is not configured
var ErrNoCredentials = errors.New("credentials not configured")

// ErrEmptyGeneration is returned when the generation service produced no text
var ErrEmptyGeneration = errors.New("generation returned no text")

// GreetingUsecase composes opening messages for new matches
type GreetingUsecase struct {
	genRepo repo.GenerationRepo
	prompts PromptConfig
}

// NewGreetingUsecase creates a new greeting usecase
func NewGreetingUsecase(genRepo repo.GenerationRepo, prompts PromptConfig) *GreetingUsecase {
	return &GreetingUsecase{
		genRepo: genRepo,
		prompts: prompts.WithDefaults(),
	}
}

// Compose asks the generation service for a greeting addressed to matchName
func (uc *GreetingUsecase) Compose(ctx context.Context, creds domain.Credentials, matchName string) (string, error) {
	if !creds.HasGenerationKey() {
		return "", ErrNoCredentials
	}

	greeting := uc.genRepo.Generate(ctx, creds.GenerationAPIKey, uc.prompts.GreetingPrompt(matchName))
	if strings.TrimSpace(greeting) == "" {
		return "", ErrEmptyGeneration
	}
	return greeting, nil
}
