package config

import (
	"os"
	"path/filepath"
	"testing"
)

func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		_ = os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, old)
			} else {
				_ = os.Unsetenv(k)
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()

	d := t.TempDir()
	env := "TABGEN_DB=postgres://u:p@localhost:5432/tabgen?sslmode=disable\n" +
		"TABGEN_LOG_LEVEL=debug\n" +
		"TABGEN_BATCH_SIZE=250\n" +
		"TABGEN_DEFAULT_CATEGORIES=red, green ,,blue\n"
	if err := os.WriteFile(filepath.Join(d, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(d); err != nil {
		t.Fatal(err)
	}

	unsetForTest(t, "TABGEN_DB", "TABGEN_LOG_LEVEL", "TABGEN_BATCH_SIZE", "TABGEN_DEFAULT_CATEGORIES")

	cfg := Load()
	if cfg.TabgenDBDSN != "postgres://u:p@localhost:5432/tabgen?sslmode=disable" {
		t.Fatalf("expected TABGEN_DB from .env, got %q", cfg.TabgenDBDSN)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected TABGEN_LOG_LEVEL from .env, got %q", cfg.LogLevel)
	}
	if cfg.BatchSize != 250 {
		t.Fatalf("expected batch size 250, got %d", cfg.BatchSize)
	}
	want := []string{"red", "green", "blue"}
	if len(cfg.DefaultCategories) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.DefaultCategories)
	}
	for i := range want {
		if cfg.DefaultCategories[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfg.DefaultCategories)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	unsetForTest(t, "TABGEN_DEFAULT_MODE", "TABGEN_BATCH_SIZE", "TABGEN_SPECS_DIR", "TABGEN_DEFAULT_CATEGORIES")
	t.Setenv("TABGEN_BATCH_SIZE", "-3")

	cfg := Load()
	if cfg.DefaultMode != "create" {
		t.Fatalf("expected default mode create, got %q", cfg.DefaultMode)
	}
	if cfg.BatchSize != 1000 {
		t.Fatalf("expected invalid batch size to fall back to 1000, got %d", cfg.BatchSize)
	}
	if cfg.SpecsDir != "./specs" {
		t.Fatalf("unexpected specs dir %q", cfg.SpecsDir)
	}
	if cfg.DefaultCategories != nil {
		t.Fatalf("expected no default categories, got %v", cfg.DefaultCategories)
	}
}
