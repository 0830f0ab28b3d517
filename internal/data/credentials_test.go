package data

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
)

func newTestCredentialsRepo(path string, env map[string]string) *credentialsRepo {
	return &credentialsRepo{
		path:   path,
		getenv: func(key string) string { return env[key] },
	}
}

func TestCredentialsMissingFile(t *testing.T) {
	r := newTestCredentialsRepo(filepath.Join(t.TempDir(), "settings.json"), nil)

	creds, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if creds.HasGenerationKey() || creds.HasCalendarClient() {
		t.Errorf("Expected empty credentials, got %+v", creds)
	}
}

func TestCredentialsSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	os.MkdirAll(filepath.Dir(path), 0700)
	os.WriteFile(path, []byte(`{"OTHER":"keep"}`), 0600)

	r := newTestCredentialsRepo(path, nil)
	want := domain.Credentials{GenerationAPIKey: "gen", CalendarClientID: "cal"}
	if err := r.Save(context.Background(), want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	data, _ := os.ReadFile(path)
	var raw map[string]string
	json.Unmarshal(data, &raw)
	if raw["OTHER"] != "keep" {
		t.Errorf("Expected unrelated key to survive, got %s", data)
	}
	if raw[KeyGenerationAPIKey] != "gen" {
		t.Errorf("Expected %s in file, got %s", KeyGenerationAPIKey, data)
	}
}

func TestCredentialsEnvFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	os.WriteFile(path, []byte(`{"GENERATION_API_KEY":"from-file"}`), 0600)

	r := newTestCredentialsRepo(path, map[string]string{
		KeyGenerationAPIKey: "from-env",
		KeyCalendarClientID: "cal-env",
	})

	creds, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if creds.GenerationAPIKey != "from-file" {
		t.Errorf("Expected file value to win, got %q", creds.GenerationAPIKey)
	}
	if creds.CalendarClientID != "cal-env" {
		t.Errorf("Expected env fallback, got %q", creds.CalendarClientID)
	}
}

func TestCredentialsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	os.WriteFile(path, []byte(`{not json`), 0600)

	r := newTestCredentialsRepo(path, nil)
	if _, err := r.Load(context.Background()); err == nil {
		t.Error("Expected error for corrupt file")
	}

	if err := r.Save(context.Background(), domain.Credentials{GenerationAPIKey: "k"}); err != nil {
		t.Fatalf("Save over corrupt file failed: %v", err)
	}
	creds, err := r.Load(context.Background())
	if err != nil || creds.GenerationAPIKey != "k" {
		t.Errorf("Expected repaired file, got %+v, %v", creds, err)
	}
}
