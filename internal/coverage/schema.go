package coverage

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// InputSchema derives the JSON Schema for a single dataset file from the Go
// types, so the published contract can never drift from the structs.
func InputSchema() (*jsonschema.Schema, error) {
	opts := &jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeOf(time.Time{}): {Type: "string", Format: "date-time"},
		},
	}
	schema, err := jsonschema.For[CoverageData](opts)
	if err != nil {
		return nil, fmt.Errorf("derive dataset schema: %w", err)
	}
	return schema, nil
}
