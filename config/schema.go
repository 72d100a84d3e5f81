package config

import (
	"encoding/json"

	"github.com/devflow/devflow/logging"
	"github.com/invopop/jsonschema"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// GenerateSchema generates the JSON Schema for .devflow.yaml by reflecting
// the Config struct. The `logging` extension is described as well; any other
// extension is accepted as an additional property.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "devflow configuration"
	schema.Description = "Schema for .devflow.yaml and .devflow.toml."
	schema.Properties.Set("logging", loggingSchema())

	return json.MarshalIndent(schema, "", "  ")
}

// loggingSchema describes the `logging` extension. Every field is optional.
func loggingSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		FieldNameTag:               "yaml",
	}
	s := r.Reflect(&logging.Config{})
	s.Version = ""
	s.ID = ""
	s.Description = "Logging settings for devflow."
	return s
}
