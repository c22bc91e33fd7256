package runs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmrzaf/tabgen/internal/domain"
)

type migration struct {
	v  int
	up func(*sql.DB) error
}

// store holds the queries shared by the sqlite and postgres repositories.
// Queries are written with ? placeholders and rebound for postgres.
type store struct {
	db       *sql.DB
	postgres bool
}

func (s *store) DB() *sql.DB { return s.db }

func (s *store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *store) q(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *store) applyMigrations(migs []migration) error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return err
	}
	var cur int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&cur); err != nil {
		return err
	}
	for _, m := range migs {
		if cur >= m.v {
			continue
		}
		if err := m.up(s.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.v, err)
		}
		if _, err := s.db.Exec(s.q(`INSERT INTO schema_migrations(version) VALUES (?)`), m.v); err != nil {
			return err
		}
		cur = m.v
	}
	return nil
}

const runColumns = `id, spec_id, spec_name, spec_version,
	target_id, target_name, target_kind, target_table,
	seed, mode, rows, cols, config_hash, status, started_at, completed_at, stats, error,
	progress_rows_written, progress_rows_total`

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func (s *store) Create(run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.Exec(s.q(`INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.SpecID, run.SpecName, run.SpecVersion,
		run.TargetID, run.TargetName, run.TargetKind, run.TargetTable,
		run.Seed, run.Mode, run.Rows, run.Cols, run.ConfigHash, string(run.Status),
		run.StartedAt.UTC(), nullTime(run.CompletedAt), nullIfEmpty(string(run.Stats)), nullIfEmpty(run.Error),
		run.ProgressRowsWritten, run.ProgressRowsTotal,
	)
	return err
}

func (s *store) Update(run *domain.Run) error {
	res, err := s.db.Exec(s.q(`UPDATE runs SET
		status = ?, completed_at = ?, stats = ?, error = ?,
		progress_rows_written = ?, progress_rows_total = ?
		WHERE id = ?`),
		string(run.Status), nullTime(run.CompletedAt), nullIfEmpty(string(run.Stats)), nullIfEmpty(run.Error),
		run.ProgressRowsWritten, run.ProgressRowsTotal, run.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*domain.Run, error) {
	var run domain.Run
	var status string
	var completedAt sql.NullTime
	var statsStr, errStr sql.NullString

	if err := sc.Scan(
		&run.ID, &run.SpecID, &run.SpecName, &run.SpecVersion,
		&run.TargetID, &run.TargetName, &run.TargetKind, &run.TargetTable,
		&run.Seed, &run.Mode, &run.Rows, &run.Cols, &run.ConfigHash, &status,
		&run.StartedAt, &completedAt, &statsStr, &errStr,
		&run.ProgressRowsWritten, &run.ProgressRowsTotal,
	); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if statsStr.Valid {
		run.Stats = json.RawMessage(statsStr.String)
	}
	if errStr.Valid {
		run.Error = errStr.String
	}
	return &run, nil
}

func (s *store) Get(id string) (*domain.Run, error) {
	run, err := scanRun(s.db.QueryRow(s.q(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return run, err
}

func (s *store) List(limit int, status string) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]interface{}, 0, 2)
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *store) UpdateProgress(id string, rowsWritten, rowsTotal int64) error {
	_, err := s.db.Exec(s.q(`UPDATE runs
		SET progress_rows_written = ?, progress_rows_total = ?
		WHERE id = ?`),
		rowsWritten, rowsTotal, id,
	)
	return err
}

func (s *store) AppendRunLog(runID, level, message string) error {
	_, err := s.db.Exec(s.q(`INSERT INTO run_logs (run_id, created_at, level, message)
		VALUES (?, ?, ?, ?)`),
		runID, time.Now().UTC(), level, message,
	)
	return err
}

// ListRunLogs returns the newest entries first.
func (s *store) ListRunLogs(runID string, limit int) ([]*domain.RunLog, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.Query(s.q(`SELECT id, run_id, created_at, level, message
		FROM run_logs
		WHERE run_id = ?
		ORDER BY id DESC
		LIMIT ?`), runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.RunLog, 0)
	for rows.Next() {
		var rl domain.RunLog
		if err := rows.Scan(&rl.ID, &rl.RunID, &rl.CreatedAt, &rl.Level, &rl.Message); err != nil {
			return nil, err
		}
		out = append(out, &rl)
	}
	return out, rows.Err()
}
