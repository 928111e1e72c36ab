package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Job store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
	StoreRedis    = "redis"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath  string
	LogDir    string
	OutputDir string

	JobStore      string // memory, sqlite, postgres, mysql or redis
	DatabasePath  string // sqlite file
	DatabaseURL   string // postgres / mysql DSN
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WHOReferencePath    string // optional YAML override of the LMS table
	DefaultSex          string // L or P, used for blank or unknown sex cells
	Workers             int
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	cfg := fromEnv(dataPath)

	for _, dir := range []string{cfg.LogDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}
	return cfg, nil
}

// fromEnv builds the configuration from the process environment without touching the disk.
func fromEnv(dataPath string) *AppConfig {
	workers := getEnvInt("ANALYSIS_WORKERS", 4)
	if workers < 1 {
		workers = 1
	}

	return &AppConfig{
		DataPath:  dataPath,
		LogDir:    filepath.Join(dataPath, "logs"),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(dataPath, "output")),

		JobStore:      strings.ToLower(getEnv("JOB_STORE", StoreSQLite)),
		DatabasePath:  getEnv("DATABASE_PATH", filepath.Join(dataPath, "growthcheck.db")),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		WHOReferencePath:    getEnv("WHO_REFERENCE_PATH", ""),
		DefaultSex:          strings.ToUpper(getEnv("DEFAULT_SEX", "L")),
		Workers:             workers,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return fallback
}
