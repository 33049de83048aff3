package render

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores renderers by format.
type Registry struct {
	mu        sync.RWMutex
	renderers map[Format]Renderer
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[Format]Renderer),
	}
}

// Register adds a renderer under its Format(). Duplicate formats return an
// error.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	format := renderer.Format()
	if format == "" {
		return fmt.Errorf("render: renderer %q has no format", renderer.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.renderers[format]; exists {
		return fmt.Errorf("render: format %s already handled by %q", format, existing.Name())
	}

	r.renderers[format] = renderer
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get retrieves the renderer of format.
func (r *Registry) Get(format Format) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return renderer, nil
}

// List returns the registered formats, sorted.
func (r *Registry) List() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]Format, 0, len(r.renderers))
	for format := range r.renderers {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Has reports whether format has a renderer.
func (r *Registry) Has(format Format) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.renderers[format]
	return ok
}
