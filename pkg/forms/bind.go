package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-trscan/pkg/model"
)

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("forms: invalid submission")

// Field error messages.
const (
	msgRequired      = "This field is required."
	msgWholeNumber   = "Enter a whole number."
	msgInvalidChoice = "Select a valid choice. %s is not one of the available choices."
	msgMaxLength     = "Ensure this value has at most %d characters (it has %d)."
	msgMinValue      = "Ensure this value is greater than or equal to %d."
	msgMaxValue      = "Ensure this value is less than or equal to %d."
	msgInvalidJSON   = "Invalid data in json"
)

// ValidationError collects field-level messages keyed by field name.
type ValidationError struct {
	Form   string
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrInvalid.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	prefix := ErrInvalid.Error()
	if e.Form != "" {
		prefix = fmt.Sprintf("%s %q", prefix, e.Form)
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Values holds cleaned form data. Absent optional values are nil.
type Values map[string]any

// String returns the value as a string, or "" when absent.
func (v Values) String(name string) string {
	switch value := v[name].(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// Int returns the value as an int and whether it was set.
func (v Values) Int(name string) (int, bool) {
	value, ok := v[name].(int)
	return value, ok
}

// Bool returns the value as a bool, false when absent.
func (v Values) Bool(name string) bool {
	value, _ := v[name].(bool)
	return value
}

// Strings renders every set value as a string, for command line arguments
// and persisted settings.
func (v Values) Strings() map[string]string {
	out := make(map[string]string, len(v))
	for name, value := range v {
		if value == nil {
			continue
		}
		out[name] = v.String(name)
	}
	return out
}

type bindConfig struct {
	initialFallback bool
	decorators      []model.Decorator
}

// BindOption customises Bind.
type BindOption func(*bindConfig)

// WithInitialFallback uses each field's initial value when the submission
// omits it entirely. Without it, an absent checkbox binds to false.
func WithInitialFallback() BindOption {
	return func(cfg *bindConfig) {
		cfg.initialFallback = true
	}
}

// WithDecorators applies decorators to the form before binding, for example
// RootDecorator so path fields validate against the workspace.
func WithDecorators(decorators ...model.Decorator) BindOption {
	return func(cfg *bindConfig) {
		cfg.decorators = append(cfg.decorators, decorators...)
	}
}

// Bind cleans values against form. Read-only fields ignore the submission and
// keep their initial value. The returned error is a *ValidationError.
func Bind(form model.FormModel, values url.Values, opts ...BindOption) (Values, error) {
	cfg := bindConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.decorators) > 0 {
		form = form.Clone()
		for _, decorator := range cfg.decorators {
			if decorator == nil {
				continue
			}
			if err := decorator.Decorate(&form); err != nil {
				return nil, fmt.Errorf("forms: decorate %q: %w", form.ID, err)
			}
		}
	}

	out := make(Values, len(form.Fields))
	verr := &ValidationError{Form: form.ID}

	for _, field := range form.Fields {
		raw, present := values[field.Name]
		if field.ReadOnly {
			out[field.Name] = field.Default
			continue
		}
		if !present && cfg.initialFallback && field.Default != nil {
			out[field.Name] = field.Default
			continue
		}

		value := ""
		if len(raw) > 0 {
			value = strings.TrimSpace(raw[len(raw)-1])
		}

		cleaned, msg := cleanField(field, value)
		if msg != "" {
			verr.add(field.Name, msg)
			continue
		}
		out[field.Name] = cleaned
	}

	if len(verr.Fields) > 0 {
		return out, verr
	}
	return out, nil
}

func cleanField(field model.Field, value string) (any, string) {
	if field.Type == model.FieldTypeBoolean {
		b := parseBool(value)
		if field.Required && !b {
			return nil, msgRequired
		}
		return b, ""
	}

	if value == "" {
		if field.Required {
			return nil, msgRequired
		}
		return nil, ""
	}

	switch field.Type {
	case model.FieldTypeInteger:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, msgWholeNumber
		}
		if rule, ok := field.Rule(model.ValidationRuleMin); ok {
			if min, err := strconv.Atoi(rule.Params["value"]); err == nil && n < min {
				return nil, fmt.Sprintf(msgMinValue, min)
			}
		}
		if rule, ok := field.Rule(model.ValidationRuleMax); ok {
			if max, err := strconv.Atoi(rule.Params["value"]); err == nil && n > max {
				return nil, fmt.Sprintf(msgMaxValue, max)
			}
		}
		return n, ""
	case model.FieldTypeChoice:
		if !field.HasOption(value) {
			return nil, fmt.Sprintf(msgInvalidChoice, value)
		}
	case model.FieldTypePath:
		if err := CheckPath(field, value); err != nil {
			return nil, err.Error()
		}
	}

	if rule, ok := field.Rule(model.ValidationRuleMaxLength); ok {
		if max, err := strconv.Atoi(rule.Params["value"]); err == nil {
			if count := utf8.RuneCountInString(value); count > max {
				return nil, fmt.Sprintf(msgMaxLength, max, count)
			}
		}
	}
	return value, ""
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// ValidateJSON checks the custom report builder payload. The payload itself
// is returned untouched by callers; only its syntax is verified here.
func ValidateJSON(values url.Values) (string, error) {
	cleaned, err := Bind(CustomReportJSON(), values)
	if err != nil {
		return "", err
	}
	raw := cleaned.String(customReportJSONKey)
	if !json.Valid([]byte(raw)) {
		verr := &ValidationError{Form: CustomReportJSONID}
		verr.add(customReportJSONKey, msgInvalidJSON)
		return "", verr
	}
	return raw, nil
}

// Initial returns the initial values of form, keyed by field name.
func Initial(form model.FormModel) Values {
	out := make(Values, len(form.Fields))
	for _, field := range form.Fields {
		if field.Default != nil {
			out[field.Name] = field.Default
		}
	}
	return out
}
