package trscan

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
	"github.com/goliatone/go-trscan/pkg/logging"
	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/reports"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// StatusOf maps err to the response status.
func StatusOf(err error) int {
	var httpErr HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &httpErr) && httpErr != nil:
		return httpErr.StatusCode()
	case errors.Is(err, layout.ErrMissingField), errors.Is(err, layout.ErrInvalidValue),
		errors.Is(err, findings.ErrUnknownField), errors.Is(err, findings.ErrUnsupportedLookup):
		return http.StatusBadRequest
	case errors.Is(err, layout.ErrMalformed), errors.Is(err, layout.ErrUnknownKind),
		errors.Is(err, forms.ErrInvalid), errors.Is(err, render.ErrUnsupportedFormat):
		return http.StatusForbidden
	case errors.Is(err, reports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reports.ErrQueueFull), errors.Is(err, reports.ErrQueueClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status of err. Client errors echo err, server
// errors only log it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusOf(err)
	logger := logging.FromContext(r.Context())
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", code), zap.Error(err))
		http.Error(w, http.StatusText(code), code)
		return
	}
	logger.Info("request rejected", zap.Int("status", code), zap.Error(err))
	http.Error(w, err.Error(), code)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
