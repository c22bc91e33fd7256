package runs

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	dsn string
	store
}

func NewPostgresRepository(dsn string) *PostgresRepository {
	return &PostgresRepository{dsn: strings.TrimSpace(dsn), store: store{postgres: true}}
}

func (r *PostgresRepository) Init() error {
	if r.dsn == "" {
		return fmt.Errorf("tabgen db dsn is required")
	}
	db, err := sql.Open("postgres", r.dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return err
	}
	r.db = db
	return r.applyMigrations([]migration{
		{1, migrateV1RunsPG},
		{2, migrateV2TargetsPG},
		{3, migrateV3TargetChecksPG},
		{4, migrateV4RunLogsPG},
	})
}

func migrateV1RunsPG(db *sql.DB) error {
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
		seed BIGINT NOT NULL,
		mode TEXT NOT NULL,
		rows INTEGER NOT NULL,
		cols INTEGER NOT NULL,
		config_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		stats TEXT,
		error TEXT,
		progress_rows_written BIGINT NOT NULL DEFAULT 0,
		progress_rows_total BIGINT NOT NULL DEFAULT 0
	)`)
	return err
}

func migrateV2TargetsPG(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS targets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		dsn TEXT NOT NULL,
		database TEXT,
		schema TEXT,
		options_json TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return err
	}
	_, _ = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_targets_name ON targets(name)`)
	return nil
}

func migrateV3TargetChecksPG(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS target_checks (
		id TEXT PRIMARY KEY,
		target_id TEXT NOT NULL,
		checked_at TIMESTAMPTZ NOT NULL,
		ok BOOLEAN NOT NULL,
		latency_ms BIGINT NOT NULL,
		server_version TEXT,
		capabilities_json TEXT,
		error TEXT
	)`); err != nil {
		return err
	}
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_target_checks_target_time ON target_checks(target_id, checked_at DESC)`)
	return nil
}

func migrateV4RunLogsPG(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS run_logs (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL
	)`); err != nil {
		return err
	}
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_run_logs_run_time ON run_logs(run_id, id DESC)`)
	return nil
}
