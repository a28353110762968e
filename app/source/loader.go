package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a list of sources from a YAML or JSON file. A missing file
// yields an empty list.
func LoadFile(path string) ([]Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	sources, err := decodeSources(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i := range sources {
		sources[i] = withDefaults(sources[i])
	}

	return sources, nil
}

func decodeSources(data []byte, ext string) ([]Source, error) {
	var sources []Source

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &sources); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &sources); err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
	}

	return sources, nil
}

func withDefaults(s Source) Source {
	s.Name = strings.TrimSpace(s.Name)
	s.Homepage = strings.TrimSpace(s.Homepage)
	s.FeedURL = strings.TrimSpace(s.FeedURL)
	if s.Region == "" {
		s.Region = DefaultRegion
	}
	return s
}
