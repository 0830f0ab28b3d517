package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DevRickLin/matchmate/internal/biz/usecase"
	"github.com/DevRickLin/matchmate/internal/dom"
	"github.com/DevRickLin/matchmate/internal/logging"
)

const configFileName = "matchmate.yaml"

var log = logging.New("Config")

// FileConfig contains the prompt templates and UI selectors loaded from YAML
type FileConfig struct {
	Prompts   PromptsConfig      `yaml:"prompts"`
	Selectors dom.SelectorConfig `yaml:"selectors"`
}

// PromptsConfig contains the language model prompt templates
type PromptsConfig struct {
	Greeting   string `yaml:"greeting"`   // supports {{match_name}}
	Extraction string `yaml:"extraction"` // supports {{conversation}}
}

// LoadFileConfig loads the YAML file. An empty path searches the usual
// locations and falls back to defaults when none exists.
func LoadFileConfig(configPath string) (*FileConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			filepath.Join("configs", configFileName),
			filepath.Join("/etc/matchmate", configFileName),
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", configFileName))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = content, p
			break
		}
		if configPath != "" {
			return nil, fmt.Errorf("read %s: %w", configPath, err)
		}
	}

	if data == nil {
		log.Infof("No %s found, using defaults", configFileName)
		return DefaultFileConfig(), nil
	}

	log.Infof("Loading config from: %s", loadedPath)

	var config FileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}

	config.fillDefaults()
	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *FileConfig) fillDefaults() {
	prompts := usecase.PromptConfig{
		GreetingTemplate:   c.Prompts.Greeting,
		ExtractionTemplate: c.Prompts.Extraction,
	}.WithDefaults()
	c.Prompts.Greeting = prompts.GreetingTemplate
	c.Prompts.Extraction = prompts.ExtractionTemplate

	c.Selectors = c.Selectors.WithDefaults()
}

// DefaultFileConfig returns the built-in prompts and selectors
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Prompts: PromptsConfig{
			Greeting:   usecase.DefaultPromptConfig.GreetingTemplate,
			Extraction: usecase.DefaultPromptConfig.ExtractionTemplate,
		},
		Selectors: dom.DefaultSelectorConfig,
	}
}
