package model

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeChoice  FieldType = "choice"
	FieldTypePath    FieldType = "path"
	FieldTypeText    FieldType = "text"
)

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMaxLength = "maxLength"
)

// ValidationRule represents a single validation constraint applied to a field.
// Thresholds are encoded in Params["value"].
type ValidationRule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Option is a single entry of a choice field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PathConstraint restricts a path field to entries below Root.
type PathConstraint struct {
	Root         string `json:"root,omitempty"`
	AllowFiles   bool   `json:"allowFiles"`
	AllowFolders bool   `json:"allowFolders"`
	Recursive    bool   `json:"recursive"`
}

// Field models an individual input inside an option form.
type Field struct {
	Name        string            `json:"name"`
	Type        FieldType         `json:"type"`
	Required    bool              `json:"required"`
	ReadOnly    bool              `json:"readOnly,omitempty"`
	Hidden      bool              `json:"hidden,omitempty"`
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	Default     any               `json:"default,omitempty"`
	Options     []Option          `json:"options,omitempty"`
	Path        *PathConstraint   `json:"path,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty"`
	UIHints     map[string]string `json:"uiHints,omitempty"`
}

// HasOption reports whether value is one of the field's choices.
func (f Field) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Rule returns the first validation rule of the given kind.
func (f Field) Rule(kind string) (ValidationRule, bool) {
	for _, rule := range f.Validations {
		if rule.Kind == kind {
			return rule, true
		}
	}
	return ValidationRule{}, false
}

// FormModel is the top-level representation renderers consume.
type FormModel struct {
	ID          string            `json:"id"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Fields      []Field           `json:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Field returns the field with the supplied name.
func (m FormModel) Field(name string) (Field, bool) {
	for _, field := range m.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Clone returns a copy of the form whose field slice can be mutated safely.
func (m FormModel) Clone() FormModel {
	out := m
	out.Fields = make([]Field, len(m.Fields))
	for i, field := range m.Fields {
		if field.Options != nil {
			field.Options = append([]Option(nil), field.Options...)
		}
		if field.Path != nil {
			path := *field.Path
			field.Path = &path
		}
		if field.UIHints != nil {
			hints := make(map[string]string, len(field.UIHints))
			for key, value := range field.UIHints {
				hints[key] = value
			}
			field.UIHints = hints
		}
		out.Fields[i] = field
	}
	return out
}

// Decorator enriches a form model before it is rendered or bound, for
// example to point path fields at the configured workspace root.
type Decorator interface {
	Decorate(*FormModel) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormModel) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormModel) error {
	return fn(form)
}
