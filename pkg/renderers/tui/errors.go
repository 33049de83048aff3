package tui

import "errors"

var (
	// ErrAborted signals the user aborted input with Ctrl+C.
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts is returned when a panel is still invalid after the
	// configured number of prompting rounds.
	ErrTooManyAttempts = errors.New("tui: too many invalid attempts")
)
