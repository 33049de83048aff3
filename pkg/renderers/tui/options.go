package tui

import "github.com/goliatone/go-trscan/pkg/model"

// Theme holds the prefixes printed before informational and error lines.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithPromptDriver overrides the prompt driver used by the prompter.
func WithPromptDriver(driver PromptDriver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(p *Prompter) {
		p.theme = theme
	}
}

// WithMaxAttempts bounds how many times an invalid panel is prompted again.
func WithMaxAttempts(n int) Option {
	return func(p *Prompter) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithDecorators applies decorators to every form before prompting, for
// example forms.RootDecorator so path fields offer workspace entries.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(p *Prompter) {
		p.decorators = append(p.decorators, decorators...)
	}
}

// WithPathChoiceLimit sets how many path entries are offered as a select
// list before falling back to free text input.
func WithPathChoiceLimit(n int) Option {
	return func(p *Prompter) {
		p.pathChoiceLimit = n
	}
}
