package ports

// TemplateEngine renders source templates.
type TemplateEngine interface {
	// Render executes raw as a template with data as the root value.
	Render(raw []byte, data any) ([]byte, error)
}
