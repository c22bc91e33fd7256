package runs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	dbPath string
	store
}

func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	return &SQLiteRepository{dbPath: dbPath}
}

func (r *SQLiteRepository) Init() error {
	if dir := filepath.Dir(r.dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create runs db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", r.dbPath+"?_busy_timeout=5000")
	if err != nil {
		return err
	}
	// one writer; async runs update progress while the API reads
	db.SetMaxOpenConns(1)
	r.db = db
	return r.applyMigrations([]migration{
		{1, migrateV1RunsSQLite},
		{2, migrateV2TargetsSQLite},
		{3, migrateV3TargetChecksSQLite},
		{4, migrateV4RunLogsSQLite},
	})
}

func migrateV1RunsSQLite(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		spec_id TEXT NOT NULL,
		spec_name TEXT NOT NULL,
		spec_version TEXT NOT NULL,
		target_id TEXT NOT NULL,
		target_name TEXT NOT NULL,
		target_kind TEXT NOT NULL,
		target_table TEXT NOT NULL,
		seed INTEGER NOT NULL,
		mode TEXT NOT NULL,
		rows INTEGER NOT NULL,
		cols INTEGER NOT NULL,
		config_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		stats TEXT,
		error TEXT,
		progress_rows_written INTEGER NOT NULL DEFAULT 0,
		progress_rows_total INTEGER NOT NULL DEFAULT 0
	)`)
	return err
}

func migrateV2TargetsSQLite(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS targets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		dsn TEXT NOT NULL,
		database TEXT,
		schema TEXT,
		options_json TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_targets_name ON targets(name)`)
	return err
}

func migrateV3TargetChecksSQLite(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS target_checks (
		id TEXT PRIMARY KEY,
		target_id TEXT NOT NULL,
		checked_at TIMESTAMP NOT NULL,
		ok INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL,
		server_version TEXT,
		capabilities_json TEXT,
		error TEXT
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_target_checks_target_time ON target_checks(target_id, checked_at DESC)`)
	return err
}

func migrateV4RunLogsSQLite(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_run_logs_run ON run_logs(run_id, id DESC)`)
	return err
}
