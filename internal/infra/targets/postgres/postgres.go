package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmrzaf/tabgen/internal/domain"
)

// PostgresTarget loads tables with COPY through a pgx pool.
type PostgresTarget struct {
	dsn    string
	schema string
	pool   *pgxpool.Pool
}

func NewPostgresTarget(dsn, schema string) *PostgresTarget {
	if schema == "" {
		schema = "public"
	}
	return &PostgresTarget{
		dsn:    dsn,
		schema: schema,
	}
}

func (t *PostgresTarget) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(t.dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}
	t.pool = pool
	return nil
}

func (t *PostgresTarget) Close() error {
	if t.pool != nil {
		t.pool.Close()
	}
	return nil
}

func (t *PostgresTarget) CreateTableIfNotExists(ctx context.Context, schema domain.TableSchema) error {
	columnDefs := make([]string, 0, len(schema.Columns)+1)
	if schema.HasIndex {
		columnDefs = append(columnDefs, domain.IndexColumnName+" TIMESTAMPTZ NOT NULL")
	}
	for _, col := range schema.Columns {
		columnDefs = append(columnDefs, fmt.Sprintf("%s %s NOT NULL", col.Name, mapColumnKind(col.Kind)))
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (%s)",
		t.schema, schema.Name, strings.Join(columnDefs, ", "))
	_, err := t.pool.Exec(ctx, createSQL)
	return err
}

func mapColumnKind(kind domain.ColumnKind) string {
	switch kind {
	case domain.ColumnKindNumeric:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func (t *PostgresTarget) TruncateTable(ctx context.Context, tableName string) error {
	_, err := t.pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s.%s", t.schema, tableName))
	return err
}

func (t *PostgresTarget) DropTable(ctx context.Context, tableName string) error {
	_, err := t.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", t.schema, tableName))
	return err
}

func (t *PostgresTarget) InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	n, err := t.pool.CopyFrom(ctx, pgx.Identifier{t.schema, tableName}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return err
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy into %s.%s wrote %d of %d rows", t.schema, tableName, n, len(rows))
	}
	return nil
}

// ServerVersion reports the server_version setting.
func (t *PostgresTarget) ServerVersion(ctx context.Context) (string, error) {
	var v string
	err := t.pool.QueryRow(ctx, "SHOW server_version").Scan(&v)
	return v, err
}
