// Package tui collects option panel values on a terminal. It walks a form
// field by field, validates the answers with forms.Bind and prompts again
// for the fields that failed.
package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/model"
)

const (
	defaultMaxAttempts     = 3
	defaultPathChoiceLimit = 40
)

// Prompter fills option forms interactively.
type Prompter struct {
	driver          PromptDriver
	theme           Theme
	maxAttempts     int
	decorators      []model.Decorator
	pathChoiceLimit int
}

// New constructs a Prompter backed by the survey driver unless overridden.
func New(options ...Option) *Prompter {
	p := &Prompter{
		theme:           Theme{InfoPrefix: "", ErrorPrefix: "! "},
		maxAttempts:     defaultMaxAttempts,
		pathChoiceLimit: defaultPathChoiceLimit,
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.driver == nil {
		p.driver = NewSurveyDriver()
	}
	return p
}

// Fill prompts for every editable field of form, starting from prefill. It
// returns the raw answers, suitable for a layout entry, and the cleaned
// values once they pass validation.
func (p *Prompter) Fill(ctx context.Context, form model.FormModel, prefill url.Values) (url.Values, forms.Values, error) {
	form, err := p.decorate(form)
	if err != nil {
		return nil, nil, err
	}

	answers := url.Values{}
	for key, values := range prefill {
		answers[key] = append([]string(nil), values...)
	}

	if form.Title != "" {
		if err := p.info(ctx, p.theme.InfoPrefix+form.Title); err != nil {
			return nil, nil, err
		}
	}

	var fieldErrs map[string][]string
	for attempt := 1; ; attempt++ {
		for _, field := range form.Fields {
			if field.Hidden || field.ReadOnly {
				continue
			}
			if fieldErrs != nil && len(fieldErrs[field.Name]) == 0 {
				continue
			}
			for _, msg := range fieldErrs[field.Name] {
				if err := p.info(ctx, p.theme.ErrorPrefix+label(field)+": "+msg); err != nil {
					return nil, nil, err
				}
			}
			value, err := p.promptField(ctx, field, answers.Get(field.Name))
			if err != nil {
				return nil, nil, err
			}
			if value == "" {
				answers.Del(field.Name)
			} else {
				answers.Set(field.Name, value)
			}
		}

		cleaned, err := forms.Bind(form, answers)
		if err == nil {
			return answers, cleaned, nil
		}
		var verr *forms.ValidationError
		if !errors.As(err, &verr) {
			return nil, nil, err
		}
		if attempt >= p.maxAttempts {
			return answers, cleaned, fmt.Errorf("%w: %w", ErrTooManyAttempts, verr)
		}
		fieldErrs = verr.Fields
	}
}

func (p *Prompter) decorate(form model.FormModel) (model.FormModel, error) {
	if len(p.decorators) == 0 {
		return form, nil
	}
	form = form.Clone()
	for _, decorator := range p.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&form); err != nil {
			return form, fmt.Errorf("tui: decorate %q: %w", form.ID, err)
		}
	}
	return form, nil
}

func (p *Prompter) info(ctx context.Context, msg string) error {
	return p.driver.Info(ctx, msg)
}

func (p *Prompter) promptField(ctx context.Context, field model.Field, current string) (string, error) {
	if current == "" && field.Default != nil {
		current = fmt.Sprint(field.Default)
	}

	switch field.Type {
	case model.FieldTypeBoolean:
		ok, err := p.driver.Confirm(ctx, ConfirmConfig{
			Message: label(field),
			Default: isTrue(current),
			Help:    field.Description,
		})
		if err != nil || !ok {
			return "", err
		}
		return "true", nil
	case model.FieldTypeChoice:
		return p.promptChoice(ctx, field, current)
	case model.FieldTypeText:
		return p.driver.TextArea(ctx, TextAreaConfig{
			Message: label(field),
			Default: current,
			Help:    field.Description,
		})
	case model.FieldTypePath:
		return p.promptPath(ctx, field, current)
	}

	cfg := InputConfig{Message: label(field), Default: current, Help: field.Description}
	if field.Type == model.FieldTypeInteger {
		cfg.Validator = wholeNumber
	}
	value, err := p.driver.Input(ctx, cfg)
	return strings.TrimSpace(value), err
}

func (p *Prompter) promptChoice(ctx context.Context, field model.Field, current string) (string, error) {
	labels := make([]string, len(field.Options))
	selected := 0
	for i, opt := range field.Options {
		labels[i] = opt.Label
		if opt.Value == current {
			selected = i
		}
	}
	idx, err := p.driver.Select(ctx, SelectConfig{
		Message:      label(field),
		Options:      labels,
		DefaultIndex: selected,
		Help:         field.Description,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(field.Options) {
		return "", nil
	}
	return field.Options[idx].Value, nil
}

// promptPath offers the entries below the field root as a list when there
// are few enough of them, and free text otherwise.
func (p *Prompter) promptPath(ctx context.Context, field model.Field, current string) (string, error) {
	var entries []string
	if field.Path != nil {
		var err error
		entries, err = forms.ListPaths(*field.Path)
		if err != nil {
			return "", err
		}
	}
	if len(entries) == 0 || len(entries) > p.pathChoiceLimit {
		value, err := p.driver.Input(ctx, InputConfig{Message: label(field), Default: current, Help: field.Description})
		return strings.TrimSpace(value), err
	}

	options := entries
	if !field.Required {
		options = append([]string{"(none)"}, entries...)
	}
	idx, err := p.driver.Select(ctx, SelectConfig{
		Message:      label(field),
		Options:      options,
		DefaultIndex: max(indexOf(options, current), 0),
		Help:         field.Description,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) || (!field.Required && idx == 0) {
		return "", nil
	}
	return options[idx], nil
}

func label(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func isTrue(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func wholeNumber(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if _, err := strconv.Atoi(value); err != nil {
		return errors.New("Enter a whole number.")
	}
	return nil
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
