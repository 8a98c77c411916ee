// Package schema checks configuration records against the embedded JSON
// schema before they are printed.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed configuration.schema.json
var configurationSchema []byte

// ConfigurationSchema returns the JSON schema of the configuration record.
func ConfigurationSchema() []byte {
	out := make([]byte, len(configurationSchema))
	copy(out, configurationSchema)
	return out
}

// ValidateConfiguration marshals v to JSON and checks it against the
// configuration schema.
func ValidateConfiguration(v interface{}) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal data for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(configurationSchema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}

	return nil
}
