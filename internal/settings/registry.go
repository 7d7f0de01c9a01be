// Package settings holds the settings registry and the remember-me lifetime
// field shown on the general settings page.
package settings

import (
	"context"
	"io"
	"sync"
)

// SanitizeFunc cleans a submitted value before it is stored.
type SanitizeFunc func(input string) string

// RenderFunc writes the HTML control for a field.
type RenderFunc func(ctx context.Context, w io.Writer) error

// Field is a control rendered on a settings page.
type Field struct {
	ID     string
	Title  string
	Page   string
	Render RenderFunc
}

type setting struct {
	page     string
	option   string
	sanitize SanitizeFunc
}

// Registry records which options a settings page saves and which fields it
// renders. Registration happens during bootstrap; afterwards it is read
// concurrently by request handlers.
type Registry struct {
	mu       sync.RWMutex
	settings []setting
	fields   []Field
}

func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterSetting declares option on page. Registering an option again
// replaces its page and sanitizer.
func (r *Registry) RegisterSetting(page, option string, sanitize SanitizeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := setting{page: page, option: option, sanitize: sanitize}
	for i := range r.settings {
		if r.settings[i].option == option {
			r.settings[i] = s
			return
		}
	}
	r.settings = append(r.settings, s)
}

// AddField adds f to its page, replacing any field with the same page and ID.
func (r *Registry) AddField(f Field) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.fields {
		if r.fields[i].Page == f.Page && r.fields[i].ID == f.ID {
			r.fields[i] = f
			return
		}
	}
	r.fields = append(r.fields, f)
}

// Options returns the options saved by page, in registration order.
func (r *Registry) Options(page string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, s := range r.settings {
		if s.page == page {
			out = append(out, s.option)
		}
	}
	return out
}

// Fields returns the fields rendered on page, in registration order.
func (r *Registry) Fields(page string) []Field {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Field
	for _, f := range r.fields {
		if f.Page == page {
			out = append(out, f)
		}
	}
	return out
}

// Sanitize runs the sanitizer registered for option. Options without one
// are returned unchanged.
func (r *Registry) Sanitize(option, input string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.settings {
		if s.option == option && s.sanitize != nil {
			return s.sanitize(input)
		}
	}
	return input
}
