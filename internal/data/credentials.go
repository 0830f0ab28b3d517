package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
)

// Settings keys, shared by the settings file and the environment fallback
const (
	KeyGenerationAPIKey = "GENERATION_API_KEY"
	KeyCalendarClientID = "CALENDAR_CLIENT_ID"
)

// DefaultSettingsPath returns ~/.matchmate/settings.json
func DefaultSettingsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".matchmate", "settings.json"), nil
}

// credentialsRepo stores credentials in a flat JSON object on disk.
// Keys missing from the file fall back to the environment.
type credentialsRepo struct {
	path   string
	getenv func(string) string
	mu     sync.Mutex
}

// NewCredentialsRepo creates a settings-file credentials repository
func NewCredentialsRepo(path string) repo.CredentialsRepo {
	return &credentialsRepo{path: path, getenv: os.Getenv}
}

func (r *credentialsRepo) readFile() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode settings file: %w", err)
	}
	return values, nil
}

// Load reads the credentials
func (r *credentialsRepo) Load(ctx context.Context) (domain.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.readFile()
	if err != nil {
		return domain.Credentials{}, err
	}

	lookup := func(key string) string {
		if v := values[key]; v != "" {
			return v
		}
		return r.getenv(key)
	}

	return domain.Credentials{
		GenerationAPIKey: lookup(KeyGenerationAPIKey),
		CalendarClientID: lookup(KeyCalendarClientID),
	}, nil
}

// Save writes the credentials, keeping unrelated keys in the file
func (r *credentialsRepo) Save(ctx context.Context, creds domain.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.readFile()
	if err != nil {
		// A corrupt file is replaced rather than blocking the save
		values = make(map[string]string)
	}
	values[KeyGenerationAPIKey] = creds.GenerationAPIKey
	values[KeyCalendarClientID] = creds.CalendarClientID

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := writeFileAtomic(r.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
