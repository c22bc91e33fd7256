package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	SpecsDir          string
	TargetsDir        string
	RunsDBPath        string
	TabgenDBDSN       string
	CacheDBPath       string
	LogLevel          string
	BindAddr          string
	DefaultMode       string
	BatchSize         int
	DefaultCategories []string
}

// Load reads TABGEN_* variables, first merging a .env file from the working
// directory when one exists. Variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		SpecsDir:          getEnv("TABGEN_SPECS_DIR", "./specs"),
		TargetsDir:        getEnv("TABGEN_TARGETS_DIR", "./targets"),
		RunsDBPath:        getEnv("TABGEN_RUNS_DB", "./tabgen-runs.sqlite"),
		TabgenDBDSN:       getEnv("TABGEN_DB", ""),
		CacheDBPath:       getEnv("TABGEN_CACHE_DB", ""),
		LogLevel:          getEnv("TABGEN_LOG_LEVEL", "info"),
		BindAddr:          getEnv("TABGEN_BIND_ADDR", ":8080"),
		DefaultMode:       getEnv("TABGEN_DEFAULT_MODE", "create"),
		BatchSize:         getEnvInt("TABGEN_BATCH_SIZE", 1000),
		DefaultCategories: getEnvList("TABGEN_DEFAULT_CATEGORIES"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
