// Package template renders the generated Go source that embeds a program's
// identity as compile-time constants.
package template

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/domain/ports"
)

// templateConfig holds configuration for the GoTemplateEngine.
type templateConfig struct {
	strict bool // Fail on missing keys
}

func defaultTemplateConfig() templateConfig {
	return templateConfig{
		strict: true,
	}
}

// TemplateOption configures a GoTemplateEngine.
type TemplateOption func(*templateConfig)

// WithStrict enables/disables strict mode for missing keys.
// When enabled (default), template rendering fails if a referenced key is missing.
func WithStrict(enabled bool) TemplateOption {
	return func(c *templateConfig) {
		c.strict = enabled
	}
}

// GoTemplateEngine implements TemplateEngine using standard text/template.
type GoTemplateEngine struct {
	config templateConfig
}

// NewGoTemplateEngine creates a new GoTemplateEngine.
func NewGoTemplateEngine(opts ...TemplateOption) ports.TemplateEngine {
	cfg := defaultTemplateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &GoTemplateEngine{config: cfg}
}

// Render executes raw with data as the root value.
func (e *GoTemplateEngine) Render(raw []byte, data any) ([]byte, error) {
	tmpl := template.New("source")

	if e.config.strict {
		tmpl = tmpl.Option("missingkey=error")
	}

	tmpl, err := tmpl.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.Bytes(), nil
}

const identityTemplate = `// Code generated by turbo gen. DO NOT EDIT.

package {{.Package}}

import (
	"github.com/google/uuid"

	"github.com/turbo-genesis/turbo-go/domain/entities"
)

const (
	// ProgramName is the program name from turbo.toml.
	ProgramName = {{printf "%q" .Identity.Name}}
	// ProgramID is derived from the owner id and the program name.
	ProgramID = {{printf "%q" .Identity.ID}}
	// OwnerID is the owner UUID from turbo.toml.
	OwnerID = {{printf "%q" .OwnerID}}
)

// Identity is the program identity built from the constants above.
var Identity = entities.ProgramIdentity{
	Name:    ProgramName,
	ID:      ProgramID,
	OwnerID: uuid.MustParse(OwnerID),
}
`

// RenderIdentity renders a gofmt'ed Go file declaring the identity
// constants in package pkg.
func RenderIdentity(engine ports.TemplateEngine, pkg string, id entities.ProgramIdentity) ([]byte, error) {
	if pkg == "" {
		return nil, fmt.Errorf("package name is required")
	}

	src, err := engine.Render([]byte(identityTemplate), map[string]any{
		"Package":  pkg,
		"Identity": id,
		"OwnerID":  id.OwnerID.String(),
	})
	if err != nil {
		return nil, err
	}

	out, err := format.Source(src)
	if err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}
	return out, nil
}
