package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGodotenvQuoting(t *testing.T) {
	content := `REDIS_PASSWORD='pass with "double quotes"'`
	path := filepath.Join(t.TempDir(), ".env.test")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `pass with "double quotes"`
	if env["REDIS_PASSWORD"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["REDIS_PASSWORD"])
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"OUTPUT_DIR", "JOB_STORE", "DATABASE_PATH", "ANALYSIS_WORKERS", "DEFAULT_SEX", "ENABLE_MERMAID_CHARTS", "REDIS_DB"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := fromEnv("/data")
	assert.Equal(t, filepath.Join("/data", "logs"), cfg.LogDir)
	assert.Equal(t, filepath.Join("/data", "output"), cfg.OutputDir)
	assert.Equal(t, StoreSQLite, cfg.JobStore)
	assert.Equal(t, filepath.Join("/data", "growthcheck.db"), cfg.DatabasePath)
	assert.Equal(t, "L", cfg.DefaultSex)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.EnableMermaidCharts)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JOB_STORE", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ANALYSIS_WORKERS", "0")
	t.Setenv("DEFAULT_SEX", "p")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")
	t.Setenv("OUTPUT_DIR", "/tmp/out")

	cfg := fromEnv(".")
	assert.Equal(t, StoreRedis, cfg.JobStore)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 1, cfg.Workers, "worker count is at least one")
	assert.Equal(t, "P", cfg.DefaultSex)
	assert.True(t, cfg.EnableMermaidCharts)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
}

func TestGetEnvInt_Invalid(t *testing.T) {
	t.Setenv("ANALYSIS_WORKERS", "many")
	assert.Equal(t, 7, getEnvInt("ANALYSIS_WORKERS", 7))
}
