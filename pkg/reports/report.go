// Package reports tracks custom reports rendered in the background and runs
// the worker pool that produces them.
package reports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Report.
type Status string

const (
	StatusRequested Status = "requested"
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// TypeCustom marks reports assembled from a widget layout.
const TypeCustom = "Custom"

var (
	// ErrNotFound reports an unknown report id.
	ErrNotFound = errors.New("reports: not found")
	// ErrQueueFull is returned by Enqueue when no slot is free.
	ErrQueueFull = errors.New("reports: queue full")
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("reports: queue closed")
)

// Report is one requested report. Options holds the layout JSON the widgets
// are rebuilt from when the job runs.
type Report struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Format        string    `json:"format"`
	Requester     string    `json:"requester"`
	TaskID        string    `json:"task_id"`
	Options       string    `json:"options"`
	Host          string    `json:"host"`
	FindingNotes  bool      `json:"finding_notes"`
	FindingImages bool      `json:"finding_images"`
	Status        Status    `json:"status"`
	File          string    `json:"file,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Done reports whether the job finished, successfully or not.
func (r Report) Done() bool {
	return r.Status == StatusSuccess || r.Status == StatusError
}

// NewReport returns a requested custom report with a fresh id.
func NewReport(name, format, requester string, layout []byte, now time.Time) Report {
	return Report{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      TypeCustom,
		Format:    format,
		Requester: requester,
		Options:   string(layout),
		Status:    StatusRequested,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Store persists reports.
type Store interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (Report, error)
	Update(ctx context.Context, r *Report) error
	// List returns the newest reports first. An empty requester lists all.
	List(ctx context.Context, requester string, limit int) ([]Report, error)
}
