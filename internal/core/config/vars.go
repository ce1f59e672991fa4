package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// promptVars reads the vars_files entries relative to configDir and layers
// them in order, so later files win. An entry may be a glob; its matches load
// in lexical order and a glob matching nothing is skipped.
func promptVars(configDir string, entries []string) (map[string]any, error) {
	out := map[string]any{}

	for _, entry := range entries {
		pattern := entry
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(configDir, pattern)
		}

		paths := []string{pattern}
		if hasMeta(entry) {
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("vars_files %q: %w", entry, err)
			}
			paths = matches
		}

		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read vars file %q: %w", path, err)
			}
			var layer map[string]any
			if err := yaml.Unmarshal(data, &layer); err != nil {
				return nil, fmt.Errorf("parse vars file %q: %w", path, err)
			}
			overlay(out, layer)
		}
	}

	return out, nil
}

func hasMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// overlay copies top into base. Maps present on both sides merge key by key;
// any other value in top replaces the one in base.
func overlay(base, top map[string]any) {
	for k, v := range top {
		sub, ok := v.(map[string]any)
		if !ok {
			base[k] = v
			continue
		}
		if existing, ok := base[k].(map[string]any); ok {
			overlay(existing, sub)
			continue
		}
		base[k] = sub
	}
}
