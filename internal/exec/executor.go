package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/mmrzaf/tabgen/internal/domain"
)

type Target interface {
	Connect(ctx context.Context) error
	Close() error
	CreateTableIfNotExists(ctx context.Context, schema domain.TableSchema) error
	TruncateTable(ctx context.Context, tableName string) error
	InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error
}

// ProgressFunc is called after every batch with rows written so far.
type ProgressFunc func(written, total int64)

const DefaultBatchSize = 1000

type Executor struct {
	batchSize int
}

func NewExecutor(batchSize int) *Executor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Executor{batchSize: batchSize}
}

// Execute writes table into target under tableName. Mode "create" creates
// the table when missing, "truncate" also empties it first, "append"
// touches nothing but the rows.
func (e *Executor) Execute(ctx context.Context, table *domain.Table, target Target, tableName, mode string, progress ProgressFunc) (*domain.RunStats, error) {
	startTime := time.Now()
	if err := target.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to target: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			_ = target.Close()
		}
	}()

	schema := table.Schema(tableName)
	switch mode {
	case domain.TableModeCreate:
		if err := target.CreateTableIfNotExists(ctx, schema); err != nil {
			return nil, fmt.Errorf("failed to create table '%s': %w", tableName, err)
		}
	case domain.TableModeTruncate:
		if err := target.CreateTableIfNotExists(ctx, schema); err != nil {
			return nil, fmt.Errorf("failed to create table '%s': %w", tableName, err)
		}
		if err := target.TruncateTable(ctx, tableName); err != nil {
			return nil, fmt.Errorf("failed to truncate table '%s': %w", tableName, err)
		}
	case domain.TableModeAppend:
	default:
		return nil, fmt.Errorf("unknown table mode: %s", mode)
	}

	columnNames := schema.ColumnNames()
	total := int64(table.RowCount)
	stats := &domain.RunStats{Columns: len(columnNames)}

	batch := make([][]any, 0, e.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := target.InsertBatch(ctx, tableName, columnNames, batch); err != nil {
			return fmt.Errorf("failed to insert batch %d into '%s': %w", stats.Batches+1, tableName, err)
		}
		stats.Batches++
		stats.RowsWritten += int64(len(batch))
		if progress != nil {
			progress(stats.RowsWritten, total)
		}
		batch = batch[:0]
		return nil
	}

	for i := 0; i < table.RowCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch = append(batch, table.Row(i))
		if len(batch) >= e.batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	closed = true
	if err := target.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize target: %w", err)
	}

	elapsed := time.Since(startTime)
	stats.WriteSeconds = elapsed.Seconds()
	stats.DurationSeconds = elapsed.Seconds()
	return stats, nil
}
