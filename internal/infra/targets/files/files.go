// Package files holds helpers shared by the file-backed targets.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// TablePath maps a table name to dir/table.ext. Names that would leave dir
// are rejected.
func TablePath(dir, table, ext string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" || table == "." || table == ".." || strings.ContainsAny(table, `/\`) {
		return "", fmt.Errorf("invalid table name for file target: %q", table)
	}
	return filepath.Join(dir, table+"."+ext), nil
}

// EnsureDir creates dir if needed.
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("file target requires a directory dsn")
	}
	return os.MkdirAll(dir, 0o755)
}

// FormatValue renders a cell the way text exports write it.
func FormatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
