package sentence

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlTable struct {
	Sentences []string `yaml:"sentences"`
}

// LoadFile reads a YAML sentence table of the form:
//
//	sentences:
//	  - The quick brown fox jumps over the lazy dog.
//	  - All that glitters is not gold.
func LoadFile(path string) (*Static, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("sentence file %s not found", path)
		}
		return nil, fmt.Errorf("read sentence file: %w", err)
	}

	var table yamlTable
	if err := yaml.Unmarshal(rawData, &table); err != nil {
		return nil, fmt.Errorf("parse sentence yaml: %w", err)
	}
	src, err := NewStatic(table.Sentences)
	if err != nil {
		return nil, fmt.Errorf("sentence file %s: %w", path, err)
	}
	return src, nil
}

// normalize collapses whitespace runs so a sentence is a single line.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
