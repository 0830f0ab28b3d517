package biz

import (
	"context"
	"strings"
	"testing"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/usecase"
)

type recordingGenerationRepo struct {
	prompts []string
}

func (r *recordingGenerationRepo) Generate(ctx context.Context, apiKey, prompt string) string {
	r.prompts = append(r.prompts, prompt)
	return `{"date":null}`
}

func TestPromptsReachEveryUsecase(t *testing.T) {
	gen := &recordingGenerationRepo{}
	u := NewUsecases(gen, nil, nil, usecase.PromptConfig{
		GreetingTemplate:   "greet {{match_name}}",
		ExtractionTemplate: "extract {{conversation}}",
	})

	creds := domain.Credentials{GenerationAPIKey: "k"}
	ctx := context.Background()
	if _, err := u.Greeting.Compose(ctx, creds, "Alex"); err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if _, err := u.DateCheck.Extract(ctx, creds, "hi"); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(gen.prompts) != 2 {
		t.Fatalf("Expected 2 prompts, got %d", len(gen.prompts))
	}
	if gen.prompts[0] != "greet Alex" || !strings.HasPrefix(gen.prompts[1], "extract hi") {
		t.Errorf("Unexpected prompts %q", gen.prompts)
	}
}
