// CUE schema validation code
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

//go:embed simulation.cue
var embeddedSchema []byte

// Schema returns the embedded CUE schema.
func Schema() []byte { return embeddedSchema }

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
// An empty cueFile selects the embedded schema.
func ValidateWithCue(configFile, cueFile string) error {
	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	schema := embeddedSchema
	if cueFile != "" {
		schema, err = os.ReadFile(cueFile)
		if err != nil {
			return fmt.Errorf("cannot read CUE schema: %w", err)
		}
	}
	return ValidateBytes(yamlBytes, schema)
}

// ValidateBytes unifies a YAML document with a CUE schema and validates the result.
func ValidateBytes(yamlBytes, schema []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileBytes(schema)
	if schemaVal.Err() != nil {
		return fmt.Errorf("schema compile failed: %w", schemaVal.Err())
	}
	f, err := yaml.Extract("config.yaml", yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(f)
	if configVal.Err() != nil {
		return fmt.Errorf("cannot parse YAML config: %w", configVal.Err())
	}

	final := configVal.Unify(schemaVal)
	if final.Err() != nil {
		return fmt.Errorf("schema unify failed: %w", final.Err())
	}
	if err := final.Validate(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
