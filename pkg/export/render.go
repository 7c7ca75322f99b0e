package export

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Renderer turns Markdown into styled terminal output.
type Renderer struct {
	tr *glamour.TermRenderer
}

// RenderOption configures the terminal renderer.
type RenderOption func(*renderConfig)

type renderConfig struct {
	style string
	width int
}

// WithStyle selects a glamour style by name ("dark", "light", "notty", ...).
// The default detects the terminal background.
func WithStyle(name string) RenderOption {
	return func(c *renderConfig) {
		c.style = name
	}
}

// WithWordWrap sets the wrap column. Zero keeps the glamour default.
func WithWordWrap(width int) RenderOption {
	return func(c *renderConfig) {
		c.width = width
	}
}

// NewRenderer creates a glamour-backed renderer.
func NewRenderer(opts ...RenderOption) (*Renderer, error) {
	var cfg renderConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	gopts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if cfg.style != "" {
		gopts = []glamour.TermRendererOption{glamour.WithStandardStyle(cfg.style)}
	}
	if cfg.width > 0 {
		gopts = append(gopts, glamour.WithWordWrap(cfg.width))
	}

	tr, err := glamour.NewTermRenderer(gopts...)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	return &Renderer{tr: tr}, nil
}

// Render styles a Markdown document. Front matter should be left out.
func (r *Renderer) Render(markdown string) (string, error) {
	return r.tr.Render(markdown)
}
