package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/tabgen/internal/config"
)

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{
		SpecsDir:    filepath.Join(dir, "specs"),
		TargetsDir:  filepath.Join(dir, "targets"),
		RunsDBPath:  filepath.Join(dir, "runs.sqlite"),
		LogLevel:    "error",
		DefaultMode: "create",
		BatchSize:   50,
	}
	root := newRootCmd(cfg)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const salesSpec = `id: sales
name: sales
version: "1"
seed: 7
default_categories: [north, south]
request:
  rows: 120
  cols: 3
  col_types: [numeric, categorical, numeric]
  col_names: [revenue, region, units]
  numeric_params:
    - {mean: 1000, std: 100}
    - {mean: 10, std: 2, noise: 0.1}
`

func writeSpec(t *testing.T, dir string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "specs"), 0o755))
	path := filepath.Join(dir, "specs", "sales.yaml")
	require.NoError(t, os.WriteFile(path, []byte(salesSpec), 0o644))
	return path
}

func TestShowcase(t *testing.T) {
	out, err := execute(t, t.TempDir(), "showcase")
	require.NoError(t, err)

	assert.Contains(t, out, "1. Basic numeric table")
	assert.Contains(t, out, "Summary by risk level:")
	assert.Contains(t, out, "Monthly averages:")
	assert.Contains(t, out, "2024-12")
	monthly := map[string]int{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 4 && strings.HasPrefix(fields[1], "2024-") {
			monthly[fields[0]]++
		}
	}
	assert.Equal(t, map[string]int{"daily_sales": 12, "temperature": 12, "foot_traffic": 12}, monthly)
}

func TestGenerateCSVIsReproducible(t *testing.T) {
	dir := t.TempDir()
	args := []string{"generate", "--format", "csv", "-s", "42", "-r", "25",
		"-t", "numeric,categorical", "-n", "price,tier", "--categorical", "gold|silver=0.3|0.7"}

	first, err := execute(t, dir, args...)
	require.NoError(t, err)
	second, err := execute(t, dir, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	records, err := csv.NewReader(strings.NewReader(first)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 26)
	assert.Equal(t, []string{"price", "tier"}, records[0])
	for _, rec := range records[1:] {
		assert.Contains(t, []string{"gold", "silver"}, rec[1])
	}
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	_, err := execute(t, t.TempDir(), "generate", "-t", "numeric,decimal", "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal")
}

func TestGenerateParquetNeedsOut(t *testing.T) {
	_, err := execute(t, t.TempDir(), "generate", "--format", "parquet")
	require.Error(t, err)
}

func TestGenerateFromSpecToFiles(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpec(t, dir)

	csvPath := filepath.Join(dir, "out", "sales.csv")
	_, err := execute(t, dir, "generate", "--spec", spec, "--format", "csv", "--out", csvPath)
	require.NoError(t, err)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 121)
	assert.Equal(t, []string{"revenue", "region", "units"}, records[0])

	parquetPath := filepath.Join(dir, "out", "sales.parquet")
	_, err = execute(t, dir, "generate", "--spec", spec, "--format", "parquet", "--out", parquetPath)
	require.NoError(t, err)
	info, err := os.Stat(parquetPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestDescribeGroupBy(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpec(t, dir)

	out, err := execute(t, dir, "describe", "--spec", spec, "--group-by", "region", "--agg", "revenue", "--value-counts", "region")
	require.NoError(t, err)
	assert.Contains(t, out, "revenue")
	assert.Contains(t, out, "Summary by region:")
	assert.Contains(t, out, "north")
	assert.Contains(t, out, "south")
}

func TestSpecCommands(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir)

	out, err := execute(t, dir, "spec", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "sales")

	out, err = execute(t, dir, "spec", "validate", "sales")
	require.NoError(t, err)
	assert.Contains(t, out, "Spec 'sales' is valid")
	assert.Contains(t, out, "mean=1000 std=100")
}

func TestRunStartToCSVTarget(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir)
	outDir := filepath.Join(dir, "exports")

	out, err := execute(t, dir, "run", "start", "--spec", "sales",
		"--target", outDir, "--target-kind", "csv", "--rows", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Run completed successfully")

	f, err := os.Open(filepath.Join(outDir, "sales.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 41)

	out, err = execute(t, dir, "run", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "success")
}
