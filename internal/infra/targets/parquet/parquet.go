package parquet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/targets/files"
)

// ErrFileExists is returned when a batch would be written to a parquet file
// this target did not open. Parquet files cannot be appended to; use the
// truncate mode to replace one.
var ErrFileExists = errors.New("parquet file already exists")

// ParquetTarget writes each table to <dir>/<table>.parquet. A file stays
// open across batches and is finalized by Close.
type ParquetTarget struct {
	dir     string
	mem     memory.Allocator
	writers map[string]*tableWriter
}

type tableWriter struct {
	file   *os.File
	schema *arrow.Schema
	writer *pqarrow.FileWriter
}

func NewParquetTarget(dir string) *ParquetTarget {
	return &ParquetTarget{
		dir:     dir,
		mem:     memory.NewGoAllocator(),
		writers: make(map[string]*tableWriter),
	}
}

func (t *ParquetTarget) Connect(ctx context.Context) error {
	return files.EnsureDir(t.dir)
}

func (t *ParquetTarget) Close() error {
	var errs []error
	for name, w := range t.writers {
		if err := w.writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close parquet writer for %s: %w", name, err))
		}
		_ = w.file.Close()
		delete(t.writers, name)
	}
	return errors.Join(errs...)
}

// CreateTableIfNotExists only validates the name; the file is created on
// the first batch, when the column types are known.
func (t *ParquetTarget) CreateTableIfNotExists(ctx context.Context, schema domain.TableSchema) error {
	_, err := files.TablePath(t.dir, schema.Name, "parquet")
	return err
}

func (t *ParquetTarget) TruncateTable(ctx context.Context, tableName string) error {
	path, err := files.TablePath(t.dir, tableName, "parquet")
	if err != nil {
		return err
	}
	if w, ok := t.writers[tableName]; ok {
		_ = w.writer.Close()
		_ = w.file.Close()
		delete(t.writers, tableName)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DropTable is TruncateTable: both remove the file.
func (t *ParquetTarget) DropTable(ctx context.Context, tableName string) error {
	return t.TruncateTable(ctx, tableName)
}

func (t *ParquetTarget) InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	w, err := t.writerFor(tableName, columns, rows[0])
	if err != nil {
		return err
	}

	b := array.NewRecordBuilder(t.mem, w.schema)
	defer b.Release()

	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %d values for %d columns", len(row), len(columns))
		}
		for i, v := range row {
			if err := appendValue(b.Field(i), v); err != nil {
				return fmt.Errorf("column %s: %w", columns[i], err)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return w.writer.Write(rec)
}

func (t *ParquetTarget) writerFor(tableName string, columns []string, sample []any) (*tableWriter, error) {
	if w, ok := t.writers[tableName]; ok {
		return w, nil
	}
	path, err := files.TablePath(t.dir, tableName, "parquet")
	if err != nil {
		return nil, err
	}
	exists, err := files.Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrFileExists, path)
	}

	schema, err := inferSchema(columns, sample)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	writer, err := pqarrow.NewFileWriter(schema, f, nil, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(t.mem)))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	w := &tableWriter{file: f, schema: schema, writer: writer}
	t.writers[tableName] = w
	return w, nil
}

var timestampType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

func inferSchema(columns []string, sample []any) (*arrow.Schema, error) {
	if len(sample) != len(columns) {
		return nil, fmt.Errorf("row has %d values for %d columns", len(sample), len(columns))
	}
	fields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		var typ arrow.DataType
		switch sample[i].(type) {
		case float64:
			typ = arrow.PrimitiveTypes.Float64
		case string:
			typ = arrow.BinaryTypes.String
		case time.Time:
			typ = timestampType
		default:
			return nil, fmt.Errorf("column %s: unsupported value type %T", name, sample[i])
		}
		fields[i] = arrow.Field{Name: name, Type: typ, Nullable: false}
	}
	return arrow.NewSchema(fields, nil), nil
}

func appendValue(b array.Builder, v any) error {
	switch fb := b.(type) {
	case *array.Float64Builder:
		x, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected float64, got %T", v)
		}
		fb.Append(x)
	case *array.StringBuilder:
		x, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		fb.Append(x)
	case *array.TimestampBuilder:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time, got %T", v)
		}
		fb.Append(arrow.Timestamp(x.UnixMicro()))
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}
