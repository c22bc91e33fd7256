package targets

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmrzaf/tabgen/internal/domain"
)

// SQLRepository stores targets and their check history in the control
// plane DB. The tables are created by the runs repository migrations.
type SQLRepository struct {
	db       *sql.DB
	postgres bool
}

func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, postgres: true}
}

func (r *SQLRepository) q(query string) string {
	if !r.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c != '?' {
			b.WriteRune(c)
			continue
		}
		n++
		b.WriteString("$" + strconv.Itoa(n))
	}
	return b.String()
}

const targetColumns = `id, name, kind, dsn, database, schema, options_json`

func scanTarget(sc interface{ Scan(...any) error }) (*domain.TargetConfig, error) {
	var t domain.TargetConfig
	var database, schema, opt sql.NullString
	if err := sc.Scan(&t.ID, &t.Name, &t.Kind, &t.DSN, &database, &schema, &opt); err != nil {
		return nil, err
	}
	t.Database = database.String
	t.Schema = schema.String
	if opt.Valid && opt.String != "" {
		if err := json.Unmarshal([]byte(opt.String), &t.Options); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func (r *SQLRepository) List() ([]*domain.TargetConfig, error) {
	rows, err := r.db.Query(`SELECT ` + targetColumns + ` FROM targets ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.TargetConfig, 0)
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLRepository) Get(id string) (*domain.TargetConfig, error) {
	t, err := scanTarget(r.db.QueryRow(r.q(`SELECT `+targetColumns+` FROM targets WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func optionsJSON(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	b, _ := json.Marshal(opts)
	return string(b)
}

func (r *SQLRepository) Create(t *domain.TargetConfig) error {
	if t == nil {
		return errors.New("nil target")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := r.db.Exec(r.q(`
		INSERT INTO targets (id, name, kind, dsn, database, schema, options_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.Name, t.Kind, t.DSN, nullIfEmpty(t.Database), nullIfEmpty(t.Schema), nullIfEmpty(optionsJSON(t.Options)), now, now)
	return err
}

func (r *SQLRepository) Update(t *domain.TargetConfig) error {
	if t == nil {
		return errors.New("nil target")
	}
	if t.ID == "" {
		return errors.New("missing target id")
	}
	res, err := r.db.Exec(r.q(`
		UPDATE targets
		SET name = ?, kind = ?, dsn = ?, database = ?, schema = ?, options_json = ?, updated_at = ?
		WHERE id = ?`),
		t.Name, t.Kind, t.DSN, nullIfEmpty(t.Database), nullIfEmpty(t.Schema), nullIfEmpty(optionsJSON(t.Options)), time.Now().UTC(), t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository) Delete(id string) error {
	res, err := r.db.Exec(r.q(`DELETE FROM targets WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository) RecordCheck(c *domain.TargetCheck) error {
	if c == nil {
		return errors.New("nil check")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	caps, _ := json.Marshal(c.Capabilities)
	_, err := r.db.Exec(r.q(`
		INSERT INTO target_checks (id, target_id, checked_at, ok, latency_ms, server_version, capabilities_json, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.TargetID, c.CheckedAt.UTC(), c.OK, c.LatencyMS, nullIfEmpty(c.ServerVer), string(caps), nullIfEmpty(c.Error))
	return err
}

func (r *SQLRepository) ListChecks(targetID string, limit int) ([]*domain.TargetCheck, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(r.q(`
		SELECT id, target_id, checked_at, ok, latency_ms, server_version, capabilities_json, error
		FROM target_checks
		WHERE target_id = ?
		ORDER BY checked_at DESC
		LIMIT ?`), targetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.TargetCheck, 0)
	for rows.Next() {
		var c domain.TargetCheck
		var server, caps, errStr sql.NullString
		if err := rows.Scan(&c.ID, &c.TargetID, &c.CheckedAt, &c.OK, &c.LatencyMS, &server, &caps, &errStr); err != nil {
			return nil, err
		}
		c.ServerVer = server.String
		c.Error = errStr.String
		if caps.Valid && caps.String != "" {
			_ = json.Unmarshal([]byte(caps.String), &c.Capabilities)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
