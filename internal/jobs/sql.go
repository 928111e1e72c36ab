package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"growthcheck/internal/growth"
	"growthcheck/internal/report"

	"github.com/rs/zerolog/log"
)

const jobColumns = "id, status, created_at, updated_at, default_sex, source_file, summary, outputs, error"

// SQLStore keeps jobs in a relational database. Timestamps are stored as Unix nanoseconds
// so every dialect round-trips them exactly.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL connects, configures the pool and ensures the jobs table exists.
func OpenSQL(dialect Dialect, config DialectConfig) (*SQLStore, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	s, err := NewSQLStore(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Debug().Str("driver", dialect.DriverName()).Msg("Job database ready")
	return s, nil
}

// NewSQLStore wraps an existing connection and creates the jobs table if needed.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if _, err := db.Exec(dialect.CreateJobsTableQuery()); err != nil {
		return nil, fmt.Errorf("failed to create jobs table: %w", err)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) q(query string) string {
	return s.dialect.RewriteQuery(query)
}

func (s *SQLStore) Create(ctx context.Context, job *Job) error {
	summary, outputs, err := encodeJob(job)
	if err != nil {
		return err
	}
	query := "INSERT INTO analysis_jobs (" + jobColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err = s.db.ExecContext(ctx, s.q(query),
		job.ID, string(job.Status), job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano(),
		string(job.DefaultSex), job.SourceFile, summary, outputs, job.Error)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Job, error) {
	query := "SELECT " + jobColumns + " FROM analysis_jobs WHERE id = ?"
	job, err := scanJob(s.db.QueryRowContext(ctx, s.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *SQLStore) List(ctx context.Context) ([]*Job, error) {
	query := "SELECT " + jobColumns + " FROM analysis_jobs ORDER BY created_at DESC, id ASC"
	rows, err := s.db.QueryContext(ctx, s.q(query))
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (s *SQLStore) Update(ctx context.Context, job *Job) error {
	job.UpdatedAt = time.Now().UTC()
	summary, outputs, err := encodeJob(job)
	if err != nil {
		return err
	}
	query := `
		UPDATE analysis_jobs
		SET status = ?, updated_at = ?, default_sex = ?, source_file = ?, summary = ?, outputs = ?, error = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, s.q(query),
		string(job.Status), job.UpdatedAt.UnixNano(), string(job.DefaultSex), job.SourceFile,
		summary, outputs, job.Error, job.ID)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return requireRow(res, job.ID)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM analysis_jobs WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return requireRow(res, id)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func encodeJob(job *Job) (sql.NullString, string, error) {
	var summary sql.NullString
	if job.Summary != nil {
		b, err := json.Marshal(job.Summary)
		if err != nil {
			return summary, "", fmt.Errorf("failed to encode summary: %w", err)
		}
		summary = sql.NullString{String: string(b), Valid: true}
	}
	outputs, err := json.Marshal(job.Outputs)
	if err != nil {
		return summary, "", fmt.Errorf("failed to encode outputs: %w", err)
	}
	return summary, string(outputs), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job                  Job
		status, sex          string
		createdAt, updatedAt int64
		summary              sql.NullString
		outputs              string
	)
	if err := row.Scan(&job.ID, &status, &createdAt, &updatedAt, &sex, &job.SourceFile, &summary, &outputs, &job.Error); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.DefaultSex = growth.Sex(sex)
	job.CreatedAt = time.Unix(0, createdAt).UTC()
	job.UpdatedAt = time.Unix(0, updatedAt).UTC()

	if summary.Valid {
		job.Summary = &report.JobSummary{}
		if err := json.Unmarshal([]byte(summary.String), job.Summary); err != nil {
			return nil, fmt.Errorf("corrupt summary for job %s: %w", job.ID, err)
		}
	}
	if outputs != "" {
		if err := json.Unmarshal([]byte(outputs), &job.Outputs); err != nil {
			return nil, fmt.Errorf("corrupt outputs for job %s: %w", job.ID, err)
		}
	}
	return &job, nil
}
