package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/rss-harvest/app/classify"
)

// LoadSettings reads the filter settings file. A missing file yields the
// defaults: built-in classifier rules, full taxonomy allowed, no exclusions
// and an empty blacklist.
func LoadSettings(path string) (*Settings, error) {
	settings := &Settings{}

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			slog.Debug("Settings file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		default:
			if err := parseSettings(data, filepath.Ext(path), settings); err != nil {
				return nil, fmt.Errorf("invalid settings %s: %w", path, err)
			}
		}
	}

	settings.applyDefaults()

	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	return settings, nil
}

func parseSettings(data []byte, ext string, settings *Settings) error {
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, settings); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if len(s.Rules) == 0 {
		s.Rules = classify.DefaultRules
	}

	paths := make([]string, 0, len(s.ExcludedPaths))
	for _, p := range s.ExcludedPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	s.ExcludedPaths = paths
}

func (s *Settings) validate() error {
	for i, rule := range s.Rules {
		if rule.Category == "" || rule.Pattern == "" {
			return fmt.Errorf("rule at index %d must have a category and a pattern", i)
		}
	}

	for i, category := range s.AllowedCategories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("allowed category at index %d is empty", i)
		}
	}

	return nil
}

func (s *Settings) Classifier() (*classify.Classifier, error) {
	if len(s.Rules) == 0 {
		return classify.Default(), nil
	}
	return classify.New(s.Rules)
}

// AllowedSet returns the configured allow-list, or every rule category plus
// the general fallback when none is configured.
func (s *Settings) AllowedSet(c *classify.Classifier) map[string]bool {
	allowed := make(map[string]bool)

	if len(s.AllowedCategories) > 0 {
		for _, category := range s.AllowedCategories {
			allowed[strings.TrimSpace(category)] = true
		}
		return allowed
	}

	for _, category := range c.Categories() {
		allowed[category] = true
	}
	allowed[classify.General] = true

	return allowed
}
