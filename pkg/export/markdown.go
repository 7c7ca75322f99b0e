package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the YAML header written above the essay body.
type FrontMatter struct {
	ID               string    `yaml:"id"`
	Title            string    `yaml:"title"`
	Step             string    `yaml:"step"`
	Completed        bool      `yaml:"completed"`
	Words            int       `yaml:"words"`
	Created          time.Time `yaml:"created"`
	Updated          time.Time `yaml:"updated"`
	DoubleSpaced     bool      `yaml:"double_spaced,omitempty"`
	TitlePage        bool      `yaml:"title_page,omitempty"`
	CitationsChecked bool      `yaml:"citations_checked,omitempty"`
}

// Options control Markdown output.
type Options struct {
	// FrontMatter prepends a YAML block with the essay metadata.
	FrontMatter bool
}

// Markdown renders v as a Markdown document.
func Markdown(v View, opts Options) (string, error) {
	var buf bytes.Buffer

	if opts.FrontMatter {
		fm := FrontMatter{
			ID:               v.ID,
			Title:            v.Title,
			Step:             v.Step.String(),
			Completed:        v.Completed,
			Words:            v.WordCount(),
			Created:          v.CreatedAt.UTC(),
			Updated:          v.UpdatedAt.UTC(),
			DoubleSpaced:     v.Checks.DoubleSpaced,
			TitlePage:        v.Checks.TitlePage,
			CitationsChecked: v.Checks.CitationsChecked,
		}
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(fm); err != nil {
			return "", fmt.Errorf("encode front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encode front matter: %w", err)
		}
		buf.WriteString("---\n\n")
	}

	fmt.Fprintf(&buf, "# %s\n", v.Title)
	for _, p := range v.Paragraphs {
		buf.WriteString("\n")
		buf.WriteString(p)
		buf.WriteString("\n")
	}

	if len(v.Bibliography) > 0 {
		buf.WriteString("\n## Bibliography\n\n")
		for _, entry := range v.Bibliography {
			fmt.Fprintf(&buf, "- %s\n", entry)
		}
	}
	return buf.String(), nil
}

// ParseFrontMatter splits a document produced by Markdown into its metadata
// and body. A document without front matter returns a zero FrontMatter.
func ParseFrontMatter(doc string) (FrontMatter, string, error) {
	var fm FrontMatter
	rest, ok := strings.CutPrefix(doc, "---\n")
	if !ok {
		return fm, doc, nil
	}
	header, body, ok := strings.Cut(rest, "\n---\n")
	if !ok {
		return fm, doc, fmt.Errorf("unterminated front matter")
	}
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, doc, fmt.Errorf("decode front matter: %w", err)
	}
	return fm, strings.TrimPrefix(body, "\n"), nil
}
