package patterns

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile parses one YAML pattern definition file. The file may hold a
// single definition or a list under a top-level `patterns:` key.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}

	var doc struct {
		Patterns []Definition `yaml:"patterns"`
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Patterns) > 0 {
		return doc.Patterns, nil
	}

	var single Definition
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if single.ID == "" {
		return nil, fmt.Errorf("parsing %s: %w: no pattern found", path, ErrInvalidDefinition)
	}
	return []Definition{single}, nil
}

// LoadDir loads every .yml/.yaml file in a directory into definitions,
// sorted by filename for a stable registration order. Each definition
// is validated; a single broken file fails the load, since silently
// dropping a misconfigured pattern is exactly what the alerting path
// exists to prevent.
func LoadDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading patterns dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yml" || ext == ".yaml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var defs []Definition
	for _, name := range names {
		loaded, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, d := range loaded {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			defs = append(defs, d)
		}
	}
	return defs, nil
}
