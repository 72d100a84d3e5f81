package config

import (
	"sync"

	"github.com/devflow/devflow/schema"
)

var (
	schemaOnce sync.Once
	schemaDoc  []byte
	schemaErr  error
)

// SchemaValidator validates raw configuration documents against the schema
// generated from Config.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator creates a validator for the configuration schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	schemaOnce.Do(func() {
		schemaDoc, schemaErr = GenerateSchema()
	})
	if schemaErr != nil {
		return nil, schemaErr
	}

	validator, err := schema.NewValidator(schemaDoc)
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{validator: validator}, nil
}

// Validate validates configuration data against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}
