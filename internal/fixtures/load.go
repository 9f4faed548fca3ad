package fixtures

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	"github.com/florianilch/stepwise/internal/assistants"
)

// fixture file extensions in lookup order
var extensions = []string{".json", ".yaml", ".yml"}

// Load reads the fixtures stored in dir on the local filesystem.
func Load(dir string) (*Store, error) {
	return LoadFS(afero.NewOsFs(), dir)
}

// LoadFS reads the fixtures stored in dir on fsys. Missing files yield empty
// listings.
func LoadFS(fsys afero.Fs, dir string) (*Store, error) {
	assistantList, err := loadObjects[assistants.Assistant](fsys, dir, "assistants")
	if err != nil {
		return nil, err
	}
	steps, err := loadObjects[assistants.RunStep](fsys, dir, "run_steps")
	if err != nil {
		return nil, err
	}

	store, err := New(assistantList, steps)
	if err != nil {
		return nil, fmt.Errorf("fixtures in %s: %w", dir, err)
	}
	return store, nil
}

// loadObjects decodes the first of name.json, name.yaml, name.yml found in dir.
func loadObjects[T any](fsys afero.Fs, dir, name string) ([]T, error) {
	for _, ext := range extensions {
		path := filepath.Join(dir, name+ext)

		data, err := afero.ReadFile(fsys, path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if ext != ".json" {
			data, err = yaml.YAMLToJSON(data)
			if err != nil {
				return nil, fmt.Errorf("failed to convert %s: %w", path, err)
			}
		}

		var objects []T
		if err := json.Unmarshal(data, &objects); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}

		slog.Debug("loaded fixtures", "path", path, "count", len(objects))
		return objects, nil
	}
	return nil, nil
}
