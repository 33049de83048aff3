package forms

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-trscan/pkg/model"
)

// Built-in control identifiers exposed by the registry.
const (
	ControlInput    = "input"
	ControlNumber   = "number"
	ControlCheckbox = "checkbox"
	ControlSelect   = "select"
	ControlPath     = "path"
	ControlTextarea = "textarea"
	ControlEditor   = "editor"
	ControlHidden   = "hidden"
	ControlReadOnly = "readonly"
)

// Matcher decides whether a control should handle the supplied field.
type Matcher func(field model.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Controls selects the HTML control used for each field based on explicit
// hints or registered matchers. Higher priority wins; ties fall back to
// registration order. Fields nothing matches render as ControlInput.
type Controls struct {
	mu    sync.RWMutex
	rules []rule
}

// NewControls constructs a registry with the built-in matchers registered.
func NewControls() *Controls {
	reg := &Controls{}
	reg.registerBuiltins()
	return reg
}

var (
	defaultControlsOnce sync.Once
	defaultControls     *Controls
)

// DefaultControls returns the shared registry with the built-in matchers.
func DefaultControls() *Controls {
	defaultControlsOnce.Do(func() {
		defaultControls = NewControls()
	})
	return defaultControls
}

// Register adds a matcher with the provided name and priority. Higher
// priority values take precedence.
func (r *Controls) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the control name for a field. An explicit "control" UI
// hint is honoured before matcher evaluation.
func (r *Controls) Resolve(field model.Field) string {
	if explicit := strings.TrimSpace(field.UIHints["control"]); explicit != "" {
		return explicit
	}
	if r == nil {
		return ControlInput
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name
		}
	}
	return ControlInput
}

func (r *Controls) registerBuiltins() {
	r.Register(ControlHidden, 100, func(field model.Field) bool {
		return field.Hidden
	})
	r.Register(ControlReadOnly, 95, func(field model.Field) bool {
		return field.ReadOnly
	})
	r.Register(ControlCheckbox, 90, func(field model.Field) bool {
		return field.Type == model.FieldTypeBoolean
	})
	r.Register(ControlSelect, 80, func(field model.Field) bool {
		return field.Type == model.FieldTypeChoice || len(field.Options) > 0
	})
	r.Register(ControlPath, 70, func(field model.Field) bool {
		return field.Type == model.FieldTypePath
	})
	r.Register(ControlNumber, 60, func(field model.Field) bool {
		return field.Type == model.FieldTypeInteger
	})
	r.Register(ControlTextarea, 50, func(field model.Field) bool {
		return field.Type == model.FieldTypeText
	})
}
