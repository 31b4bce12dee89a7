package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of journal configurations
type Loader struct {
	journalsDir string
}

func NewLoader(journalsDir string) *Loader {
	return &Loader{journalsDir: journalsDir}
}

// LoadAll loads all YAML journal files from the journals directory.
// The map key is the journal name.
func (l *Loader) LoadAll() (map[string]*JournalConfig, error) {
	configs := make(map[string]*JournalConfig)

	if _, err := os.Stat(l.journalsDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.journalsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.journalsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		if _, exists := configs[config.Name]; exists {
			return nil, fmt.Errorf("duplicate journal name %q in %s", config.Name, file)
		}
		configs[config.Name] = config
	}

	return configs, nil
}

func (l *Loader) loadFile(path string) (*JournalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config JournalConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config, path)

	return &config, nil
}

func (l *Loader) setDefaults(config *JournalConfig, path string) {
	if config.Name == "" {
		base := filepath.Base(path)
		config.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if config.FeedType == "" {
		config.FeedType = "rss"
	}
	if config.Category == "" {
		config.Category = "General Dentistry"
	}
	if config.NeedsScraping == nil {
		// Nature feeds omit abstracts and need the article page fetched
		needs := strings.Contains(strings.ToLower(config.FeedURL), "nature.com")
		config.NeedsScraping = &needs
	}
}

func (l *Loader) validate(config *JournalConfig) error {
	if config.FeedURL == "" {
		return fmt.Errorf("journal feed_url is required")
	}
	if config.Name == "" {
		return fmt.Errorf("journal name is required")
	}

	switch config.FeedType {
	case "rss", "rdf", "atom":
	default:
		return fmt.Errorf("invalid feed_type: %s", config.FeedType)
	}

	return nil
}
