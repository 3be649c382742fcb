package templates

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"
)

// Renderer renders small text templates for outbound messaging. Parsed
// templates are cached by name, so the reply builder pays the parse cost
// once per template.
type Renderer struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

// Render compiles the template text with strict missing-key semantics and
// executes it against data. A later Render with the same name reuses the
// parsed template.
func (r *Renderer) Render(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("templates: template text required")
	}
	t, err := r.lookup(name, tmpl)
	if err != nil {
		return "", fmt.Errorf("templates: parse: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("templates: execute: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) lookup(name, tmpl string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[name]; ok {
		return t, nil
	}
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, err
	}
	if r.cache == nil {
		r.cache = make(map[string]*template.Template)
	}
	r.cache[name] = t
	return t, nil
}
