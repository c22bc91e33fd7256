package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/exec"
	"github.com/mmrzaf/tabgen/internal/infra/targets/csvfile"
	esTarget "github.com/mmrzaf/tabgen/internal/infra/targets/elasticsearch"
	"github.com/mmrzaf/tabgen/internal/infra/targets/parquet"
	pgTarget "github.com/mmrzaf/tabgen/internal/infra/targets/postgres"
	sqliteTarget "github.com/mmrzaf/tabgen/internal/infra/targets/sqlite"
	"github.com/mmrzaf/tabgen/internal/validation"
)

// BuildTarget returns an unconnected exec.Target for cfg.
func BuildTarget(cfg *domain.TargetConfig) (exec.Target, error) {
	switch cfg.Kind {
	case domain.TargetKindPostgres:
		schema := cfg.Schema
		if schema == "" {
			schema = "public"
		}
		return pgTarget.NewPostgresTarget(cfg.DSN, schema), nil
	case domain.TargetKindSQLite:
		return sqliteTarget.NewSQLiteTarget(cfg.DSN), nil
	case domain.TargetKindElasticsearch:
		return esTarget.NewElasticsearchTarget(cfg.DSN), nil
	case domain.TargetKindCSV:
		return csvfile.NewCSVTarget(cfg.DSN), nil
	case domain.TargetKindParquet:
		return parquet.NewParquetTarget(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported target kind: %s", cfg.Kind)
	}
}

// CheckTarget connects to t, reports its version where the backend has
// one, and tries create/insert/truncate with a throwaway table.
func CheckTarget(ctx context.Context, t *domain.TargetConfig) (*domain.TargetCheck, error) {
	check := &domain.TargetCheck{
		ID:        uuid.NewString(),
		TargetID:  t.ID,
		CheckedAt: time.Now().UTC(),
	}

	if err := validation.NewValidator(nil).ValidateTarget(t); err != nil {
		check.Error = err.Error()
		return check, err
	}

	start := time.Now()
	tgt, err := BuildTarget(effectiveTarget(t))
	if err != nil {
		check.Error = err.Error()
		return check, err
	}
	if err := tgt.Connect(ctx); err != nil {
		check.Error = err.Error()
		check.LatencyMS = time.Since(start).Milliseconds()
		return check, err
	}
	defer tgt.Close()

	check.OK = true
	check.LatencyMS = time.Since(start).Milliseconds()
	if ver, err := serverVersion(ctx, tgt, t); err == nil {
		check.ServerVer = ver
	}
	check.Capabilities = checkCapabilities(ctx, tgt)
	return check, nil
}

func serverVersion(ctx context.Context, tgt exec.Target, cfg *domain.TargetConfig) (string, error) {
	switch x := tgt.(type) {
	case *pgTarget.PostgresTarget:
		return x.ServerVersion(ctx)
	case *sqliteTarget.SQLiteTarget:
		var v string
		err := x.DB().QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v)
		return v, err
	case *esTarget.ElasticsearchTarget:
		return esTarget.GetServerVersion(ctx, cfg.DSN)
	default:
		return "", nil
	}
}

type tableDropper interface {
	DropTable(ctx context.Context, tableName string) error
}

func checkCapabilities(ctx context.Context, tgt exec.Target) domain.TargetCapabilities {
	schema := domain.TableSchema{
		Name:    fmt.Sprintf("tabgen_check_%d", time.Now().UnixNano()),
		Columns: []domain.SchemaColumn{{Name: "value", Kind: domain.ColumnKindNumeric}},
	}
	if d, ok := tgt.(tableDropper); ok {
		defer func() { _ = d.DropTable(ctx, schema.Name) }()
	}

	var caps domain.TargetCapabilities
	if err := tgt.CreateTableIfNotExists(ctx, schema); err != nil {
		return caps
	}
	caps.CanCreate = true

	if err := tgt.InsertBatch(ctx, schema.Name, schema.ColumnNames(), [][]any{{1.0}}); err != nil {
		return caps
	}
	caps.CanInsert = true

	if err := tgt.TruncateTable(ctx, schema.Name); err != nil {
		return caps
	}
	caps.CanTruncate = true
	return caps
}
