package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mmrzaf/tabgen/internal/domain"
)

type SQLiteTarget struct {
	path string
	db   *sql.DB
}

func NewSQLiteTarget(path string) *SQLiteTarget {
	return &SQLiteTarget{path: path}
}

func (t *SQLiteTarget) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite3", t.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	t.db = db
	return nil
}

func (t *SQLiteTarget) Close() error {
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}

func (t *SQLiteTarget) CreateTableIfNotExists(ctx context.Context, schema domain.TableSchema) error {
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name=?`
	var name string
	err := t.db.QueryRowContext(ctx, query, schema.Name).Scan(&name)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	columnDefs := make([]string, 0, len(schema.Columns)+1)
	if schema.HasIndex {
		columnDefs = append(columnDefs, domain.IndexColumnName+" TEXT NOT NULL")
	}
	for _, col := range schema.Columns {
		columnDefs = append(columnDefs, fmt.Sprintf("%s %s NOT NULL", col.Name, mapColumnKind(col.Kind)))
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", schema.Name, strings.Join(columnDefs, ", "))
	_, err = t.db.ExecContext(ctx, createSQL)
	return err
}

func mapColumnKind(kind domain.ColumnKind) string {
	switch kind {
	case domain.ColumnKindNumeric:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (t *SQLiteTarget) TruncateTable(ctx context.Context, tableName string) error {
	_, err := t.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", tableName))
	return err
}

func (t *SQLiteTarget) DropTable(ctx context.Context, tableName string) error {
	_, err := t.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName))
	return err
}

func (t *SQLiteTarget) InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?"
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for _, row := range rows {
		for i, val := range row {
			if ts, ok := val.(time.Time); ok {
				args[i] = ts.UTC().Format(time.RFC3339)
			} else {
				args[i] = val
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DB exposes the open handle, mainly for tests that read back rows.
func (t *SQLiteTarget) DB() *sql.DB { return t.db }
