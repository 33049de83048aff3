package tui_test

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/model"
	"github.com/goliatone/go-trscan/pkg/renderers/tui"
)

type stubDriver struct {
	inputs    []string
	selectIdx []int
	confirm   []bool
	textAreas []string
	info      []string
	selects   []tui.SelectConfig
}

func (s *stubDriver) Input(_ context.Context, _ tui.InputConfig) (string, error) {
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ tui.ConfirmConfig) (bool, error) {
	if len(s.confirm) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[0]
	s.confirm = s.confirm[1:]
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	if len(s.selectIdx) == 0 {
		return -1, errors.New("no select scripted")
	}
	s.selects = append(s.selects, cfg)
	val := s.selectIdx[0]
	s.selectIdx = s.selectIdx[1:]
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ tui.TextAreaConfig) (string, error) {
	if len(s.textAreas) == 0 {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

func workspace(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	return root
}

func TestFillRepromptsInvalidFields(t *testing.T) {
	root := workspace(t, "app", "lib")
	driver := &stubDriver{
		inputs:    []string{"", "3", "Nightly"},
		selectIdx: []int{1},
		textAreas: []string{"weekly run"},
	}
	p := tui.New(tui.WithPromptDriver(driver), tui.WithDecorators(forms.RootDecorator(root)))

	answers, cleaned, err := p.Fill(context.Background(), forms.TrscanOptions(), nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := url.Values{
		"scan_name":     {"Nightly"},
		"product":       {"3"},
		"source_folder": {"lib"},
		"description":   {"weekly run"},
	}
	if diff := cmp.Diff(want, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	if n, ok := cleaned.Int("product"); !ok || n != 3 {
		t.Fatalf("expected product 3, got %v", cleaned["product"])
	}
	if diff := cmp.Diff([]string{"app", "lib"}, driver.selects[0].Options); diff != "" {
		t.Fatalf("path options mismatch (-want +got):\n%s", diff)
	}
	wantInfo := []string{"Scan Details", "! Scan Name: This field is required."}
	if diff := cmp.Diff(wantInfo, driver.info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFillGivesUpAfterMaxAttempts(t *testing.T) {
	root := workspace(t, "src")
	driver := &stubDriver{
		inputs:    []string{"", "", ""},
		selectIdx: []int{0},
		textAreas: []string{""},
	}
	p := tui.New(
		tui.WithPromptDriver(driver),
		tui.WithDecorators(forms.RootDecorator(root)),
		tui.WithMaxAttempts(2),
	)

	_, _, err := p.Fill(context.Background(), forms.TrscanOptions(), nil)
	if !errors.Is(err, tui.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if !errors.Is(err, forms.ErrInvalid) {
		t.Fatalf("expected wrapped validation error, got %v", err)
	}
}

func TestFillChoicesAndFlags(t *testing.T) {
	form := model.FormModel{
		ID: "flags",
		Fields: []model.Field{
			{Name: "verbose", Type: model.FieldTypeBoolean, Label: "Verbose"},
			{Name: "quiet", Type: model.FieldTypeBoolean, Label: "Quiet"},
			{
				Name:    "browser",
				Type:    model.FieldTypeChoice,
				Label:   "Browser",
				Options: []model.Option{{Value: "Any", Label: "Any Browser"}, {Value: "IE11", Label: "Internet Explorer 11"}},
			},
			{Name: "secret", Type: model.FieldTypeString, Hidden: true},
			{Name: "marker", Type: model.FieldTypeString, ReadOnly: true, Default: "x"},
		},
	}
	driver := &stubDriver{confirm: []bool{true, false}, selectIdx: []int{1}}
	p := tui.New(tui.WithPromptDriver(driver))

	answers, _, err := p.Fill(context.Background(), form, url.Values{"quiet": {"true"}, "browser": {"Any"}})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := url.Values{"verbose": {"true"}, "browser": {"IE11"}}
	if diff := cmp.Diff(want, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	if got := driver.selects[0].Options; len(got) != 2 || got[1] != "Internet Explorer 11" {
		t.Fatalf("expected option labels, got %v", got)
	}
}
