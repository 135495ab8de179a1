package coverage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"
)

// LoadDir reads every *.json dataset in dir and returns them keyed by project key.
// Any malformed file aborts the whole load; a report is never produced from a
// partially understood input set.
func LoadDir(dir string) (map[string]*CoverageData, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan dataset directory %q: %w", dir, err)
	}
	sort.Strings(entries)

	schema, err := InputSchema()
	if err != nil {
		return nil, err
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset schema: %w", err)
	}

	datasets := make(map[string]*CoverageData, len(entries))
	for _, path := range entries {
		data, err := loadFile(path, resolved)
		if err != nil {
			return nil, err
		}
		if _, exists := datasets[data.ProjectKey]; exists {
			return nil, fmt.Errorf("duplicate project key %q in %s", data.ProjectKey, path)
		}
		datasets[data.ProjectKey] = data
		log.Debug().
			Str("file", filepath.Base(path)).
			Str("project", data.ProjectKey).
			Int("deliveryUnits", len(data.DeliveryUnits)).
			Int("servicePoints", len(data.ServicePoints)).
			Msg("Loaded coverage dataset")
	}

	return datasets, nil
}

func loadFile(path string, resolved *jsonschema.Resolved) (*CoverageData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	// Validate the untyped document first so shape errors carry schema context
	// instead of a bare unmarshal failure.
	var untyped any
	if err := json.Unmarshal(raw, &untyped); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if err := resolved.Validate(untyped); err != nil {
		return nil, fmt.Errorf("dataset %s does not match the input schema: %w", path, err)
	}

	var data CoverageData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}

	data.Normalize()
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return &data, nil
}
