// Package jobs persists analysis jobs behind a small repository interface.
package jobs

import (
	"context"
	"errors"
	"sort"
	"time"

	"growthcheck/internal/growth"
	"growthcheck/internal/report"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no job has the requested ID.
var ErrNotFound = errors.New("job not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Outputs are the files written for a completed job.
type Outputs struct {
	Workbook  string `json:"workbook,omitempty"`
	Narrative string `json:"narrative,omitempty"`
}

// Job is one analysis run over an uploaded workbook.
type Job struct {
	ID         string             `json:"id"`
	Status     Status             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	DefaultSex growth.Sex         `json:"default_sex"`
	SourceFile string             `json:"source_file"`
	Summary    *report.JobSummary `json:"summary,omitempty"`
	Outputs    Outputs            `json:"outputs"`
	Error      string             `json:"error,omitempty"`
}

// New returns a processing job with a fresh ID.
func New(sourceFile string, defaultSex growth.Sex, now time.Time) *Job {
	now = now.UTC()
	return &Job{
		ID:         uuid.NewString(),
		Status:     StatusProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
		DefaultSex: defaultSex,
		SourceFile: sourceFile,
	}
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Repository stores jobs. Implementations are safe for concurrent use.
type Repository interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	// List returns all jobs, newest first.
	List(ctx context.Context) ([]*Job, error)
	// Update replaces a stored job and stamps its UpdatedAt.
	Update(ctx context.Context, job *Job) error
	Delete(ctx context.Context, id string) error
	Close() error
}

func sortNewestFirst(list []*Job) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
