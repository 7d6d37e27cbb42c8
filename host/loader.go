package host

import (
	"fmt"
	"slices"
	"strings"

	apptemplate "github.com/turbo-genesis/turbo-go/application/template"
	"github.com/turbo-genesis/turbo-go/application/validation"
	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/infrastructure/parser"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	templateEngine  ports.TemplateEngine
	parser          ports.ManifestParser
	strictTemplates bool // Fail on missing template keys
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		parser:          parser.NewYamlManifestParser(),
		strictTemplates: true,
	}
}

// Loader reads declared manifests and checks loaded programs against them.
type Loader struct {
	validator *validation.ManifestValidator
	config    loaderConfig
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithParser sets a custom manifest parser.
func WithParser(p ports.ManifestParser) LoaderOption {
	return func(c *loaderConfig) {
		c.parser = p
	}
}

// WithTemplateEngine sets a template engine.
func WithTemplateEngine(t ports.TemplateEngine) LoaderOption {
	return func(c *loaderConfig) {
		c.templateEngine = t
	}
}

// WithStrictTemplates enables/disables strict template mode.
// When enabled (default), template rendering fails if a referenced key is missing.
func WithStrictTemplates(enabled bool) LoaderOption {
	return func(c *loaderConfig) {
		c.strictTemplates = enabled
	}
}

// NewLoader creates a new Loader with defaults.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.templateEngine == nil {
		cfg.templateEngine = apptemplate.NewGoTemplateEngine(
			apptemplate.WithStrict(cfg.strictTemplates),
		)
	}

	return &Loader{config: cfg, validator: validation.NewManifestValidator()}
}

// LoadManifest renders raw with vars, parses it and validates the result.
func (l *Loader) LoadManifest(raw []byte, vars map[string]any) (*entities.Manifest, error) {
	data, err := l.config.templateEngine.Render(raw, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to render manifest: %w", err)
	}

	manifest, err := l.config.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := l.Validate(manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Validate reports every structural and schema problem in m as one error.
func (l *Loader) Validate(m *entities.Manifest) error {
	res, err := l.validator.Validate(m)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !res.Valid {
		msg := "manifest validation failed:"
		for _, e := range res.Errors {
			msg += fmt.Sprintf("\n- %s: %s", e.Field, e.Message)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

// Verify checks that a loaded program provides what declared promises: the
// same program id and at least the declared commands and channels.
func (l *Loader) Verify(declared, actual *entities.Manifest) error {
	var problems []string
	if declared.ProgramID != actual.ProgramID {
		problems = append(problems, fmt.Sprintf("program id is %s, declared %s", actual.ProgramID, declared.ProgramID))
	}
	for _, c := range declared.Commands {
		if _, ok := actual.Command(c.Name); !ok {
			problems = append(problems, fmt.Sprintf("command %q is not registered", c.Name))
		}
	}
	for _, c := range declared.Channels {
		got, ok := actual.Channel(c.Name)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("channel %q is not registered", c.Name))
		case c.IntervalMs != 0 && got.IntervalMs != c.IntervalMs:
			problems = append(problems, fmt.Sprintf("channel %q interval is %dms, declared %dms", c.Name, got.IntervalMs, c.IntervalMs))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("program does not match manifest:\n- %s", strings.Join(problems, "\n- "))
}
