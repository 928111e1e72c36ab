// Package analysis runs one uploaded workbook through ingestion, validation and reporting,
// and tracks the run as a job.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"growthcheck/internal/growth"
	"growthcheck/internal/ingest"
	"growthcheck/internal/jobs"
	"growthcheck/internal/report"
	"growthcheck/internal/timeline"
	"growthcheck/internal/validation"
	"growthcheck/internal/who"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrRejected means the workbook could not be processed at all; the job is marked failed.
var ErrRejected = errors.New("workbook rejected")

// Output file names inside <output>/<jobID>/.
const (
	WorkbookName  = "hasil_validasi.xlsx"
	NarrativeName = "laporan_validasi.txt"
)

const rejectBirthDate = "tanggal lahir tidak valid"

// Options describe one upload.
type Options struct {
	SourceName string
	DefaultSex growth.Sex
	Sheet      string
}

// Result is a finished run.
type Result struct {
	Job    *jobs.Job
	Report *report.Report
}

// Service owns the job repository and the validation engine.
type Service struct {
	repo      jobs.Repository
	engine    *validation.Engine
	outputDir string
	workers   int
	now       func() time.Time
}

// NewService wires the pipeline. A nil table selects the built-in WHO reference.
func NewService(repo jobs.Repository, table *who.Table, outputDir string, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		repo:      repo,
		engine:    validation.NewEngine(table),
		outputDir: outputDir,
		workers:   workers,
		now:       time.Now,
	}
}

// Jobs exposes the repository for read and delete operations.
func (s *Service) Jobs() jobs.Repository {
	return s.repo
}

// Table returns the WHO reference in use.
func (s *Service) Table() *who.Table {
	return s.engine.Table()
}

// AnalyzeFile opens path and runs Analyze on it.
func (s *Service) AnalyzeFile(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if opts.SourceName == "" {
		opts.SourceName = filepath.Base(path)
	}
	return s.Analyze(ctx, f, opts)
}

// Analyze creates a job, validates every child of the workbook in parallel and writes the
// report files. A workbook without a month header fails the job with ErrRejected.
func (s *Service) Analyze(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	sex := opts.DefaultSex
	if !sex.Valid() {
		sex = growth.Male
	}

	job := jobs.New(opts.SourceName, sex, s.now())
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	logger := log.With().Str("job_id", job.ID).Str("source", opts.SourceName).Logger()
	logger.Info().Msg("Analysis started")

	sheet, err := ingest.Read(r, ingest.Options{DefaultSex: sex, Sheet: opts.Sheet})
	if err != nil {
		return s.fail(ctx, job, fmt.Errorf("%w: %w", ErrRejected, err))
	}

	children, err := s.ValidateChildren(ctx, sheet.Children)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	rep := report.Build(report.Input{
		JobID:       job.ID,
		SourceFile:  opts.SourceName,
		GeneratedAt: s.now(),
		Table:       s.engine.Table(),
		Children:    children,
	})

	outputs, err := s.writeOutputs(job.ID, rep)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	summary := rep.Summary
	job.Status = jobs.StatusCompleted
	job.Summary = &summary
	job.Outputs = outputs
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	logger.Info().
		Int("children", summary.TotalChildren).
		Int("records", summary.TotalRecords).
		Int("errors", summary.Error).
		Int("missing", summary.Missing).
		Msg("Analysis completed")
	return &Result{Job: job, Report: rep}, nil
}

func (s *Service) fail(ctx context.Context, job *jobs.Job, cause error) (*Result, error) {
	log.Error().Err(cause).Str("job_id", job.ID).Msg("Analysis failed")
	job.Status = jobs.StatusFailed
	job.Error = cause.Error()
	if err := s.repo.Update(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job failure")
	}
	return &Result{Job: job}, cause
}

// ValidateChildren runs the per-child pipeline with at most s.workers goroutines. Each
// goroutine writes only its own slot; cancellation is checked before a child starts.
func (s *Service) ValidateChildren(ctx context.Context, children []growth.Child) ([]report.ChildResult, error) {
	out := make([]report.ChildResult, len(children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range children {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.validateChild(children[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}
	return out, nil
}

func (s *Service) validateChild(c growth.Child) (cr report.ChildResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("child_id", c.ID).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Child validation panicked")
			cr = report.ChildResult{Child: c, Rejected: true, Reason: fmt.Sprintf("kesalahan internal: %v", r)}
		}
	}()

	if !c.BirthDate.IsValid {
		return report.ChildResult{Child: c, Rejected: true, Reason: rejectBirthDate}
	}
	tl := timeline.Build(c.Measurements)
	return report.ChildResult{
		Child:      c,
		Results:    s.engine.Validate(c, tl),
		Unmeasured: tl.Missing,
	}
}

func (s *Service) writeOutputs(jobID string, rep *report.Report) (jobs.Outputs, error) {
	dir := filepath.Join(s.outputDir, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return jobs.Outputs{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	out := jobs.Outputs{
		Workbook:  filepath.Join(dir, WorkbookName),
		Narrative: filepath.Join(dir, NarrativeName),
	}
	if err := writeFile(out.Workbook, func(w io.Writer) error { return report.WriteWorkbook(w, rep) }); err != nil {
		return jobs.Outputs{}, err
	}
	if err := writeFile(out.Narrative, func(w io.Writer) error { return report.WriteNarrative(w, rep) }); err != nil {
		return jobs.Outputs{}, err
	}
	return out, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// DeleteJob removes the job record and its output directory. Jobs written to another
// output root are cleaned up through their recorded workbook path.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	dir := filepath.Join(s.outputDir, id)
	if job.Outputs.Workbook != "" {
		dir = filepath.Dir(job.Outputs.Workbook)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove outputs of job %s: %w", id, err)
	}
	return s.repo.Delete(ctx, id)
}
