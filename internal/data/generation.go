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

	openai "github.com/sashabaranov/go-openai"

	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/logging"
)

const (
	DefaultGenerationBaseURL = "https://api.gemini.example/v1"
	DefaultGenerationPath    = "/generate"

	generationMaxTokens   = 150
	generationTemperature = 0.7
	generationTimeout     = 30 * time.Second
)

// GenerationConfig configures the text generation endpoint
type GenerationConfig struct {
	BaseURL string // e.g. https://api.gemini.example/v1
	Path    string // appended to BaseURL instead of /completions
	Model   string // optional, omitted from the request when empty
	Timeout time.Duration
}

// pathRewriteDoer sends completion requests to the configured path.
// The endpoint speaks the legacy completions wire format under another name.
type pathRewriteDoer struct {
	client *http.Client
	path   string
}

func (d *pathRewriteDoer) Do(req *http.Request) (*http.Response, error) {
	if !strings.HasSuffix(req.URL.Path, "/completions") {
		return d.client.Do(req)
	}
	if d.path != "" {
		req.URL.Path = strings.TrimSuffix(req.URL.Path, "/completions") + d.path
		req.URL.RawPath = ""
	}
	if err := stripEmptyModel(req); err != nil {
		return nil, err
	}
	return d.client.Do(req)
}

// stripEmptyModel drops "model":"" from a JSON request body. The client
// always sends the field and the endpoint rejects an empty one.
func stripEmptyModel(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	raw, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil && string(fields["model"]) == `""` {
		delete(fields, "model")
		if stripped, err := json.Marshal(fields); err == nil {
			raw = stripped
		}
	}

	req.Body = io.NopCloser(bytes.NewReader(raw))
	req.ContentLength = int64(len(raw))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}
	return nil
}

// generationRepo implements repo.GenerationRepo on an OpenAI-compatible client
type generationRepo struct {
	cfg  GenerationConfig
	http *http.Client
	log  *logging.Logger
}

// NewGenerationRepo creates a generation repository
func NewGenerationRepo(cfg GenerationConfig) repo.GenerationRepo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGenerationBaseURL
	}
	if cfg.Path == "" {
		cfg.Path = DefaultGenerationPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = generationTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasPrefix(cfg.Path, "/") {
		cfg.Path = "/" + cfg.Path
	}

	return &generationRepo{
		cfg:  cfg,
		http: &http.Client{},
		log:  logging.New("Generation"),
	}
}

func (r *generationRepo) client(apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = r.cfg.BaseURL
	config.HTTPClient = &pathRewriteDoer{client: r.http, path: r.cfg.Path}
	return openai.NewClientWithConfig(config)
}

// Generate returns the first choice's text, or "" on any failure
func (r *generationRepo) Generate(ctx context.Context, apiKey, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	resp, err := r.client(apiKey).CreateCompletion(ctx, openai.CompletionRequest{
		Model:       r.cfg.Model,
		Prompt:      prompt,
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	})
	if err != nil {
		r.log.Errorf("Generation request failed: %v", err)
		return ""
	}

	if len(resp.Choices) == 0 {
		r.log.Warnf("Generation returned no choices")
		return ""
	}
	return resp.Choices[0].Text
}
