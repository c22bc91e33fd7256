package domain

import (
	"encoding/json"
	"time"
)

type ColumnKind string

const (
	ColumnKindNumeric     ColumnKind = "numeric"
	ColumnKindCategorical ColumnKind = "categorical"
)

// Defaults applied to numeric columns lacking explicit parameters.
const (
	DefaultMean  = 0.0
	DefaultStd   = 1.0
	DefaultNoise = 0.0
)

// ProbabilityTolerance bounds how far a probability vector may drift from 1.0.
const ProbabilityTolerance = 1e-6

type NumericParams struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Std   float64 `json:"std" yaml:"std"`
	Noise float64 `json:"noise" yaml:"noise"`
}

type CategoricalParams struct {
	Categories    []string  `json:"categories" yaml:"categories"`
	Probabilities []float64 `json:"probabilities" yaml:"probabilities"`
}

// ColumnSpec is a fully normalized column description. Exactly one of
// Numeric or Categorical is set, matching Kind.
type ColumnSpec struct {
	Name        string             `json:"name" yaml:"name"`
	Kind        ColumnKind         `json:"kind" yaml:"kind"`
	Numeric     *NumericParams     `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Categorical *CategoricalParams `json:"categorical,omitempty" yaml:"categorical,omitempty"`
}

// NumericOverride carries the caller's explicit numeric parameters; nil
// fields fall back to defaults (or the request-wide noise).
type NumericOverride struct {
	Mean  *float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std   *float64 `json:"std,omitempty" yaml:"std,omitempty"`
	Noise *float64 `json:"noise,omitempty" yaml:"noise,omitempty"`
}

type CategoricalOverride struct {
	Categories    []string  `json:"categories,omitempty" yaml:"categories,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty" yaml:"probabilities,omitempty"`
}

// IndexSpec attaches a timestamp index to every row: Start + i*Step.
type IndexSpec struct {
	Start string `json:"start" yaml:"start"`
	Step  string `json:"step" yaml:"step"`
}

// TabularRequest is the terse, partially specified input to the generator.
// NumericParams and CategoricalParams align with the n-th numeric and n-th
// categorical column respectively, counted left to right.
type TabularRequest struct {
	Rows              int                   `json:"rows" yaml:"rows"`
	Cols              int                   `json:"cols" yaml:"cols"`
	ColTypes          []string              `json:"col_types,omitempty" yaml:"col_types,omitempty"`
	ColNames          []string              `json:"col_names,omitempty" yaml:"col_names,omitempty"`
	Noise             *float64              `json:"noise,omitempty" yaml:"noise,omitempty"`
	NumericParams     []NumericOverride     `json:"numeric_params,omitempty" yaml:"numeric_params,omitempty"`
	CategoricalParams []CategoricalOverride `json:"categorical_params,omitempty" yaml:"categorical_params,omitempty"`
	Index             *IndexSpec            `json:"index,omitempty" yaml:"index,omitempty"`
}

// TableSpec is a named, persisted TabularRequest.
type TableSpec struct {
	ID                string         `json:"id" yaml:"id"`
	Name              string         `json:"name" yaml:"name"`
	Version           string         `json:"version" yaml:"version"`
	Description       string         `json:"description" yaml:"description"`
	Seed              *int64         `json:"seed,omitempty" yaml:"seed,omitempty"`
	TargetTable       string         `json:"target_table,omitempty" yaml:"target_table,omitempty"`
	DefaultCategories []string       `json:"default_categories,omitempty" yaml:"default_categories,omitempty"`
	Request           TabularRequest `json:"request" yaml:"request"`
}

type TargetConfig struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Kind     string            `json:"kind" yaml:"kind"`
	DSN      string            `json:"dsn" yaml:"dsn"`
	Database string            `json:"database,omitempty" yaml:"database,omitempty"`
	Schema   string            `json:"schema,omitempty" yaml:"schema,omitempty"`
	Options  map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

const (
	TargetKindSQLite        = "sqlite"
	TargetKindPostgres      = "postgres"
	TargetKindElasticsearch = "elasticsearch"
	TargetKindCSV           = "csv"
	TargetKindParquet       = "parquet"
)

type TargetCapabilities struct {
	CanCreate   bool `json:"can_create"`
	CanInsert   bool `json:"can_insert"`
	CanTruncate bool `json:"can_truncate"`
}

type TargetCheck struct {
	ID           string             `json:"id"`
	TargetID     string             `json:"target_id"`
	CheckedAt    time.Time          `json:"checked_at"`
	OK           bool               `json:"ok"`
	LatencyMS    int64              `json:"latency_ms"`
	ServerVer    string             `json:"server_version,omitempty"`
	Capabilities TargetCapabilities `json:"capabilities"`
	Error        string             `json:"error,omitempty"`
}

type Run struct {
	ID                  string          `json:"id"`
	SpecID              string          `json:"spec_id"`
	SpecName            string          `json:"spec_name"`
	SpecVersion         string          `json:"spec_version"`
	TargetID            string          `json:"target_id"`
	TargetName          string          `json:"target_name"`
	TargetKind          string          `json:"target_kind"`
	TargetTable         string          `json:"target_table"`
	Seed                int64           `json:"seed"`
	Mode                string          `json:"mode"`
	Rows                int             `json:"rows"`
	Cols                int             `json:"cols"`
	ConfigHash          string          `json:"config_hash"`
	Status              RunStatus       `json:"status"`
	StartedAt           time.Time       `json:"started_at"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	Stats               json.RawMessage `json:"stats,omitempty"`
	Error               string          `json:"error,omitempty"`
	ProgressRowsWritten int64           `json:"progress_rows_written"`
	ProgressRowsTotal   int64           `json:"progress_rows_total"`
}

type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

type RunStats struct {
	RowsWritten     int64   `json:"rows_written"`
	Columns         int     `json:"columns"`
	Batches         int     `json:"batches"`
	GenerateSeconds float64 `json:"generate_seconds"`
	WriteSeconds    float64 `json:"write_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type RunLog struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// RunRequest selects a table spec (stored or inline) and a target (stored or
// inline) and how to write into it.
type RunRequest struct {
	SpecID      string        `json:"spec_id,omitempty"`
	Spec        *TableSpec    `json:"spec,omitempty"`
	TargetID    string        `json:"target_id,omitempty"`
	Target      *TargetConfig `json:"target,omitempty"`
	Seed        *int64        `json:"seed,omitempty"`
	Rows        *int          `json:"rows,omitempty"`
	TargetTable string        `json:"target_table,omitempty"`
	Mode        string        `json:"mode,omitempty"`
}

// RunPlan is the side-effect-free resolution of a RunRequest.
type RunPlan struct {
	SpecID      string       `json:"spec_id"`
	SpecName    string       `json:"spec_name"`
	TargetID    string       `json:"target_id"`
	TargetName  string       `json:"target_name"`
	TargetKind  string       `json:"target_kind"`
	TargetTable string       `json:"target_table"`
	Mode        string       `json:"mode"`
	Seed        int64        `json:"seed"`
	Rows        int          `json:"rows"`
	Columns     []ColumnSpec `json:"columns"`
	ConfigHash  string       `json:"config_hash"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// GenerateRequest is the stateless "give me a table" request used by the
// API and CLI.
type GenerateRequest struct {
	Request           TabularRequest `json:"request"`
	Seed              *int64         `json:"seed,omitempty"`
	DefaultCategories []string       `json:"default_categories,omitempty"`
}

const (
	TableModeCreate   = "create"
	TableModeTruncate = "truncate"
	TableModeAppend   = "append"
)
