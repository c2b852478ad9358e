package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadModels reads all *.yaml and *.yml files from the given directory and
// parses each into a ContentModel. Empty api identifiers are derived from
// names. Models are returned sorted by api_identifier for deterministic
// seeding.
//
// An empty directory returns an empty slice with no error.
// A missing directory returns an error.
func LoadModels(dir string) ([]ContentModel, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading model directory %q: %w", dir, err)
	}

	var models []ContentModel

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		m, err := loadModelFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading model file %q: %w", entry.Name(), err)
		}

		models = append(models, m)
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].APIIdentifier < models[j].APIIdentifier
	})

	return models, nil
}

// loadModelFile reads a single YAML file. The decoder uses KnownFields(true)
// so that misspelled keys (e.g., "requred") are a parse error instead of
// being silently ignored, and item field types outside the allowed set fail
// to decode.
func loadModelFile(path string) (ContentModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ContentModel{}, fmt.Errorf("reading file: %w", err)
	}

	var m ContentModel
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return ContentModel{}, fmt.Errorf("parsing YAML: %w", err)
	}

	ApplyDerivedIdentifiers(&m)

	return m, nil
}
