package jobs

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"growthcheck/internal/config"
	"growthcheck/internal/growth"
	"growthcheck/internal/report"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 8, 30, 0, 123456789, time.UTC)

// exerciseRepository runs the shared contract against any backend.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	older := New("posyandu_jan.xlsx", growth.Male, t0)
	newer := New("posyandu_feb.xlsx", growth.Female, t0.Add(time.Hour))
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	assert.Error(t, repo.Create(ctx, older), "duplicate IDs are rejected")

	got, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Equal(t, "posyandu_jan.xlsx", got.SourceFile)
	assert.Equal(t, growth.Male, got.DefaultSex)
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.Nil(t, got.Summary)

	older.Status = StatusCompleted
	older.Summary = &report.JobSummary{TotalChildren: 2, TotalRecords: 9, Valid: 5, Warning: 1, Error: 1, Missing: 2}
	older.Outputs = Outputs{Workbook: "out/hasil_validasi.xlsx", Narrative: "out/laporan_validasi.txt"}
	require.NoError(t, repo.Update(ctx, older))
	assert.True(t, older.UpdatedAt.After(t0))

	got, err = repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, *older.Summary, *got.Summary)
	assert.Equal(t, older.Outputs, got.Outputs)
	assert.True(t, got.Done())

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest first")
	assert.Equal(t, older.ID, list[1].ID)

	require.NoError(t, repo.Delete(ctx, newer.ID))
	_, err = repo.Get(ctx, newer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, newer.ID), ErrNotFound)

	ghost := New("ghost.xlsx", growth.Male, t0)
	assert.ErrorIs(t, repo.Update(ctx, ghost), ErrNotFound)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore(t *testing.T) {
	exerciseRepository(t, NewMemoryStore())
}

func TestMemoryStore_CopiesOnWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	j := New("a.xlsx", growth.Male, t0)
	require.NoError(t, s.Create(ctx, j))

	j.Status = StatusFailed
	got, err := s.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
}

func TestSQLStore_SQLite(t *testing.T) {
	repo, err := OpenSQL(NewSQLiteDialect(), DialectConfig{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	defer repo.Close()

	exerciseRepository(t, repo)
}

func TestSQLStore_ReopenKeepsJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	ctx := context.Background()

	repo, err := OpenSQL(NewSQLiteDialect(), DialectConfig{Path: path})
	require.NoError(t, err)
	j := New("a.xlsx", growth.Female, t0)
	require.NoError(t, repo.Create(ctx, j))
	require.NoError(t, repo.Close())

	repo, err = OpenSQL(NewSQLiteDialect(), DialectConfig{Path: path})
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, growth.Female, got.DefaultSex)
}

func TestSQLStore_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS analysis_jobs").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewSQLStore(db, NewPostgresDialect())
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at", "default_sex", "source_file", "summary", "outputs", "error"}).
		AddRow("job-1", "completed", t0.UnixNano(), t0.UnixNano(), "P", "a.xlsx", `{"total_children":3}`, `{"workbook":"w.xlsx"}`, "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_jobs WHERE id = $1")).
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := repo.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 3, job.Summary.TotalChildren)
	assert.Equal(t, "w.xlsx", job.Outputs.Workbook)
	assert.True(t, job.CreatedAt.Equal(t0))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM analysis_jobs WHERE id = $1")).
		WithArgs("job-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "job-2"), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewSQLStore(db, NewMySQLDialect())
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ?")).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRewritePlaceholders(t *testing.T) {
	got := rewritePlaceholdersToNumbered("UPDATE t SET a = ?, b = ? WHERE id = ?")
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", got)
	assert.Equal(t, "SELECT 1", NewSQLiteDialect().RewriteQuery("SELECT 1"))
}

func TestDialectFor(t *testing.T) {
	for name, driver := range map[string]string{"sqlite": "sqlite3", "postgresql": "postgres", "mysql": "mysql"} {
		d, ok := DialectFor(name)
		require.True(t, ok, name)
		assert.Equal(t, driver, d.DriverName())
	}
	_, ok := DialectFor("oracle")
	assert.False(t, ok)
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisStore(client)
}

func TestRedisStore(t *testing.T) {
	_, repo := setupTestRedis(t)
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestRedisStore_IndexWithoutValue(t *testing.T) {
	mr, repo := setupTestRedis(t)
	defer repo.Close()
	ctx := context.Background()

	j := New("a.xlsx", growth.Male, t0)
	require.NoError(t, repo.Create(ctx, j))
	mr.Del(jobKey(j.ID))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	repo, err := Open(ctx, &config.AppConfig{JobStore: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, repo)

	repo, err = Open(ctx, &config.AppConfig{JobStore: config.StoreSQLite, DatabasePath: filepath.Join(t.TempDir(), "g.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, repo)
	require.NoError(t, repo.Close())

	mr := miniredis.RunT(t)
	repo, err = Open(ctx, &config.AppConfig{JobStore: config.StoreRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, repo)
	require.NoError(t, repo.Close())

	_, err = Open(ctx, &config.AppConfig{JobStore: "cassandra"})
	assert.ErrorContains(t, err, "unsupported job store")
}
