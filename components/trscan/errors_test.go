package trscan_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/goliatone/go-trscan/components/trscan"
	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/layout"
	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/reports"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "status error", err: trscan.StatusError{Code: http.StatusTeapot}, want: http.StatusTeapot},
		{name: "missing field", err: fmt.Errorf("build: %w", layout.ErrMissingField), want: http.StatusBadRequest},
		{name: "unknown lookup field", err: fmt.Errorf("build: %w", findings.ErrUnknownField), want: http.StatusBadRequest},
		{name: "unsupported lookup", err: fmt.Errorf("build: %w", findings.ErrUnsupportedLookup), want: http.StatusBadRequest},
		{name: "malformed layout", err: layout.ErrMalformed, want: http.StatusForbidden},
		{name: "unsupported format", err: render.ErrUnsupportedFormat, want: http.StatusForbidden},
		{name: "report not found", err: reports.ErrNotFound, want: http.StatusNotFound},
		{name: "queue full", err: reports.ErrQueueFull, want: http.StatusServiceUnavailable},
		{name: "other", err: errors.New("disk full"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := trscan.StatusOf(tc.err); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
