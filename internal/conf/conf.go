package conf

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/usecase"
	"github.com/DevRickLin/matchmate/internal/dom"
)

// Defaults
const (
	DefaultTargetURL     = "https://tinder.com/"
	DefaultAPIPort       = 9090
	DefaultSettleDelay   = 2 * time.Second
	DefaultAttachRetry   = 2 * time.Second
	DefaultSwipeInterval = 5 * time.Second
)

// Config represents application configuration
type Config struct {
	// Browser the agent drives
	Browser BrowserConfig

	// Local stores
	Store StoreConfig

	// Generation endpoint
	Generation GenerationConfig

	// Calendar endpoint and OAuth client
	Calendar CalendarConfig

	// Observer and executor timing
	Agent AgentConfig

	// Feishu notifications (optional)
	Feishu FeishuConfig

	// Settings API
	API APIConfig

	// Prompts and selectors (loaded from YAML)
	File *FileConfig

	LogDir string
	Debug  bool
}

// BrowserConfig contains browser configuration
type BrowserConfig struct {
	TargetURL   string
	UserDataDir string
	Headless    bool
}

// StoreConfig contains local storage paths
type StoreConfig struct {
	SettingsPath string
	DedupDBPath  string // empty keeps dedup state in memory
}

// GenerationConfig contains generation endpoint configuration
type GenerationConfig struct {
	BaseURL string
	Path    string
	Model   string
}

// CalendarConfig contains calendar configuration
type CalendarConfig struct {
	BaseURL        string
	ClientSecret   string
	TokenCachePath string
}

// AgentConfig contains observer, executor and swiper timing
type AgentConfig struct {
	SettleDelay   time.Duration
	AttachRetry   time.Duration
	AutoSwipe     bool
	SwipeInterval time.Duration
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID        string
	AppSecret    string
	NotifyChatID string
}

// Enabled reports whether Feishu notifications are configured
func (c FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.NotifyChatID != ""
}

// APIConfig contains settings API configuration
type APIConfig struct {
	Port int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".matchmate")

	file, err := LoadFileConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Browser: BrowserConfig{
			TargetURL:   envOr("TARGET_URL", DefaultTargetURL),
			UserDataDir: envOr("BROWSER_USER_DATA_DIR", filepath.Join(baseDir, "browser")),
			Headless:    os.Getenv("HEADLESS") == "true",
		},
		Store: StoreConfig{
			SettingsPath: envOr("SETTINGS_PATH", filepath.Join(baseDir, "settings.json")),
			DedupDBPath:  os.Getenv("DEDUP_DB_PATH"),
		},
		Generation: GenerationConfig{
			BaseURL: os.Getenv("GENERATION_BASE_URL"),
			Path:    os.Getenv("GENERATION_PATH"),
			Model:   os.Getenv("GENERATION_MODEL"),
		},
		Calendar: CalendarConfig{
			BaseURL:        os.Getenv("CALENDAR_BASE_URL"),
			ClientSecret:   os.Getenv("CALENDAR_CLIENT_SECRET"),
			TokenCachePath: envOr("TOKEN_CACHE_PATH", filepath.Join(baseDir, "token.json")),
		},
		Feishu: FeishuConfig{
			AppID:        os.Getenv("FEISHU_APP_ID"),
			AppSecret:    os.Getenv("FEISHU_APP_SECRET"),
			NotifyChatID: os.Getenv("FEISHU_NOTIFY_CHAT_ID"),
		},
		File:   file,
		LogDir: os.Getenv("LOG_DIR"),
		Debug:  os.Getenv("DEBUG") == "true",
	}

	if cfg.Agent.SettleDelay, err = envMillis("SETTLE_DELAY_MS", DefaultSettleDelay); err != nil {
		return nil, err
	}
	if cfg.Agent.AttachRetry, err = envMillis("ATTACH_RETRY_MS", DefaultAttachRetry); err != nil {
		return nil, err
	}
	if cfg.Agent.SwipeInterval, err = envMillis("SWIPE_INTERVAL_MS", DefaultSwipeInterval); err != nil {
		return nil, err
	}
	cfg.Agent.AutoSwipe = os.Getenv("AUTO_SWIPE") == "true"

	cfg.API.Port = DefaultAPIPort
	if val := os.Getenv("API_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return nil, &ConfigError{Field: "API_PORT", Message: "not a number"}
		}
		cfg.API.Port = port
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envMillis(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	ms, err := strconv.Atoi(val)
	if err != nil || ms <= 0 {
		return 0, &ConfigError{Field: key, Message: "must be a positive number of milliseconds"}
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// ToPromptConfig converts to prompt configuration
func (c *Config) ToPromptConfig() usecase.PromptConfig {
	if c.File == nil {
		return usecase.DefaultPromptConfig
	}
	return usecase.PromptConfig{
		GreetingTemplate:   c.File.Prompts.Greeting,
		ExtractionTemplate: c.File.Prompts.Extraction,
	}.WithDefaults()
}

// ToSelectorConfig returns the UI selectors
func (c *Config) ToSelectorConfig() dom.SelectorConfig {
	if c.File == nil {
		return dom.DefaultSelectorConfig
	}
	return c.File.Selectors.WithDefaults()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	target, err := url.Parse(c.Browser.TargetURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return &ConfigError{Field: "TARGET_URL", Message: "must be an absolute http(s) URL"}
	}
	if c.Browser.UserDataDir == "" {
		return &ConfigError{Field: "BROWSER_USER_DATA_DIR", Message: "required"}
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return &ConfigError{Field: "API_PORT", Message: fmt.Sprintf("%d out of range", c.API.Port)}
	}
	f := c.Feishu
	if (f.AppID == "") != (f.AppSecret == "") {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "both or neither required"}
	}
	if f.AppID != "" && f.NotifyChatID == "" {
		return &ConfigError{Field: "FEISHU_NOTIFY_CHAT_ID", Message: "required when Feishu is configured"}
	}
	if c.File != nil {
		if _, err := c.File.Selectors.WithDefaults().Compile(); err != nil {
			return &ConfigError{Field: "selectors", Message: err.Error()}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
