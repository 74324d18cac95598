package news

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one configured feed.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Manifest is the news-sources YAML file.
type Manifest struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads and parses the sources manifest with strict validation.
// Unknown YAML fields are rejected (via KnownFields), and required fields
// are validated. A missing file is not an error: the poller simply has
// nothing to do.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources manifest: %w", err)
	}

	sources, err := ParseSources(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sources, nil
}

// ParseSources decodes manifest bytes.
func ParseSources(data []byte) ([]Source, error) {
	var manifest Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to parse sources manifest: %w", err)
	}

	seen := make(map[string]bool, len(manifest.Sources))
	for i, source := range manifest.Sources {
		if source.Name == "" {
			return nil, fmt.Errorf("source %d: missing required field: name", i)
		}
		if source.URL == "" {
			return nil, fmt.Errorf("source %q: missing required field: url", source.Name)
		}
		if seen[source.Name] {
			return nil, fmt.Errorf("duplicate source name: %s", source.Name)
		}
		seen[source.Name] = true
	}
	return manifest.Sources, nil
}
