package prompt

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/codeready-toolchain/parley/pkg/llm"
)

// Params carries everything that enters the system prompt.
// Template, when set, overrides the built-in template (tests use this).
type Params struct {
	Tools       []llm.ToolDefinition
	Language    string
	Persona     string
	Description string
	Now         time.Time
	Template    string
}

// BuildSystemPrompt renders the system message text. Substitutions:
// current date and year, one "- name: description" line per tool, the
// persona, and the target response language.
func BuildSystemPrompt(p Params) (string, error) {
	tmplText := p.Template
	if tmplText == "" {
		tmplText = systemTemplate
	}
	tmpl, err := template.New("system").Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("failed to parse system prompt template: %w", err)
	}

	language := p.Language
	if language == "" {
		language = "English"
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder
	err = tmpl.Execute(&b, map[string]string{
		"Persona":     p.Persona,
		"Description": p.Description,
		"Date":        now.Format("2006-01-02"),
		"Year":        now.Format("2006"),
		"ToolList":    FormatToolList(p.Tools),
		"Language":    language,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return b.String(), nil
}

// FormatToolList renders the tool list injected into the system
// prompt: one "- name: first-line-of-description" line per tool.
func FormatToolList(tools []llm.ToolDefinition) string {
	if len(tools) == 0 {
		return "No tools available."
	}
	var b strings.Builder
	for i, t := range tools {
		if i > 0 {
			b.WriteByte('\n')
		}
		first := t.Description
		if idx := strings.IndexByte(first, '\n'); idx >= 0 {
			first = first[:idx]
		}
		fmt.Fprintf(&b, "- %s: %s", t.Name, strings.TrimSpace(first))
	}
	return b.String()
}
