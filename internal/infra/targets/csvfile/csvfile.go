package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/targets/files"
)

// CSVTarget writes each table to <dir>/<table>.csv with a header row.
type CSVTarget struct {
	dir string
}

func NewCSVTarget(dir string) *CSVTarget {
	return &CSVTarget{dir: dir}
}

func (t *CSVTarget) Connect(ctx context.Context) error {
	return files.EnsureDir(t.dir)
}

func (t *CSVTarget) Close() error { return nil }

// CreateTableIfNotExists touches the file. The header is written with the
// first batch so that appends to an existing file do not repeat it.
func (t *CSVTarget) CreateTableIfNotExists(ctx context.Context, schema domain.TableSchema) error {
	path, err := files.TablePath(t.dir, schema.Name, "csv")
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (t *CSVTarget) TruncateTable(ctx context.Context, tableName string) error {
	path, err := files.TablePath(t.dir, tableName, "csv")
	if err != nil {
		return err
	}
	return os.Truncate(path, 0)
}

func (t *CSVTarget) DropTable(ctx context.Context, tableName string) error {
	path, err := files.TablePath(t.dir, tableName, "csv")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (t *CSVTarget) InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	path, err := files.TablePath(t.dir, tableName, "csv")
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(columns); err != nil {
			return err
		}
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %d values for %d columns", len(row), len(columns))
		}
		for i, v := range row {
			record[i] = files.FormatValue(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
