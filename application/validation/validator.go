// Package validation checks program manifests for structural problems and
// well-formed payload schemas.
package validation

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/turbo-genesis/turbo-go/domain/entities"
)

// ManifestValidator validates manifests with struct tags and compiles every
// embedded payload schema.
type ManifestValidator struct {
	validate *validator.Validate
}

// NewManifestValidator creates a new validator.
func NewManifestValidator() *ManifestValidator {
	return &ManifestValidator{validate: validator.New()}
}

// Validate checks m. A non-nil error means validation could not run; an
// invalid manifest is reported through the result.
func (v *ManifestValidator) Validate(m *entities.Manifest) (*entities.ValidationResult, error) {
	if m == nil {
		return nil, errors.New("manifest is nil")
	}
	result := &entities.ValidationResult{Valid: true}

	if err := v.validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("failed to validate manifest: %w", err)
		}
		for _, fe := range verrs {
			result.Add(fe.Namespace(), fmt.Sprintf("failed %q check", fe.Tag()))
		}
	}

	for _, c := range m.Commands {
		checkSchema(result, "commands."+c.Name+".payload_schema", c.PayloadSchema)
	}
	for _, c := range m.Channels {
		checkSchema(result, "channels."+c.Name+".send_schema", c.SendSchema)
		checkSchema(result, "channels."+c.Name+".recv_schema", c.RecvSchema)
	}

	return result, nil
}

func checkSchema(result *entities.ValidationResult, field string, raw []byte) {
	if len(raw) == 0 {
		return
	}

	compiler := jsonschema.NewCompiler()
	url := "mem://" + field + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		result.Add(field, fmt.Sprintf("invalid schema document: %v", err))
		return
	}
	if _, err := compiler.Compile(url); err != nil {
		result.Add(field, fmt.Sprintf("invalid schema: %v", err))
	}
}
