package validation

import (
	"errors"
	"testing"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/registry"
)

func TestValidateRunRequest_RequiresMode(t *testing.T) {
	v := NewValidator(registry.DefaultSamplerRegistry())
	req := &domain.RunRequest{
		SpecID:   "s1",
		TargetID: "t1",
	}
	if err := v.ValidateRunRequest(req, nil); err == nil {
		t.Fatal("expected mode validation error")
	}
}

func TestValidateRunRequest_Overrides(t *testing.T) {
	v := NewValidator(registry.DefaultSamplerRegistry())
	rows := 500
	seed := int64(7)
	req := &domain.RunRequest{
		SpecID:      "s1",
		TargetID:    "t1",
		Mode:        "append",
		Rows:        &rows,
		Seed:        &seed,
		TargetTable: "readings",
	}
	if err := v.ValidateRunRequest(req, nil); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestValidateRunRequest_RejectsBadOverrides(t *testing.T) {
	v := NewValidator(registry.DefaultSamplerRegistry())
	rows := 0
	req := &domain.RunRequest{SpecID: "s1", TargetID: "t1", Mode: "create", Rows: &rows}
	if err := v.ValidateRunRequest(req, nil); err == nil {
		t.Fatal("expected rows override error")
	}

	req2 := &domain.RunRequest{SpecID: "s1", TargetID: "t1", Mode: "create", TargetTable: "bad-name"}
	if err := v.ValidateRunRequest(req2, nil); err == nil {
		t.Fatal("expected invalid target_table error")
	}
}

func TestValidateRunRequest_ExactlyOneSpecAndTarget(t *testing.T) {
	v := NewValidator(registry.DefaultSamplerRegistry())
	spec := &domain.TableSpec{Name: "inline", Request: domain.TabularRequest{Rows: 3, Cols: 1}}

	both := &domain.RunRequest{SpecID: "s1", Spec: spec, TargetID: "t1", Mode: "create"}
	if err := v.ValidateRunRequest(both, nil); err == nil {
		t.Fatal("expected error when both spec_id and spec are set")
	}

	neither := &domain.RunRequest{TargetID: "t1", Mode: "create"}
	if err := v.ValidateRunRequest(neither, nil); err == nil {
		t.Fatal("expected error when no spec is given")
	}

	inline := &domain.RunRequest{
		Spec:   spec,
		Target: &domain.TargetConfig{Name: "out", Kind: "csv", DSN: "/tmp/out"},
		Mode:   "create",
	}
	if err := v.ValidateRunRequest(inline, nil); err != nil {
		t.Fatalf("expected inline spec and target to validate, got %v", err)
	}
}

func TestValidateRunRequest_InlineSpecIsNormalized(t *testing.T) {
	v := NewValidator(registry.DefaultSamplerRegistry())
	req := &domain.RunRequest{
		Spec: &domain.TableSpec{
			Name:    "bad",
			Request: domain.TabularRequest{Rows: 3, Cols: 2, ColTypes: []string{"numeric"}},
		},
		TargetID: "t1",
		Mode:     "create",
	}
	if err := v.ValidateRunRequest(req, nil); err == nil {
		t.Fatal("expected inline spec shape error")
	}
}

func TestValidateRunRequest_InlineSpecUsesFallbackCategories(t *testing.T) {
	v := NewValidator(registry.DefaultSamplerRegistry())
	req := &domain.RunRequest{
		Spec: &domain.TableSpec{
			Name:    "bare",
			Request: domain.TabularRequest{Rows: 3, Cols: 1, ColTypes: []string{"categorical"}},
		},
		TargetID: "t1",
		Mode:     "create",
	}
	if err := v.ValidateRunRequest(req, nil); !errors.Is(err, domain.ErrMissingCategories) {
		t.Fatalf("expected missing categories without defaults, got %v", err)
	}
	if err := v.ValidateRunRequest(req, []string{"A", "B"}); err != nil {
		t.Fatalf("expected fallback categories to satisfy the spec, got %v", err)
	}
	req.Spec.DefaultCategories = []string{"own"}
	if err := v.ValidateRunRequest(req, nil); err != nil {
		t.Fatalf("expected spec defaults to satisfy the spec, got %v", err)
	}
}

func TestValidateTarget_Kinds(t *testing.T) {
	v := NewValidator(registry.DefaultSamplerRegistry())
	es := &domain.TargetConfig{Name: "e1", Kind: "elasticsearch", DSN: "http://localhost:9200"}
	if err := v.ValidateTarget(es); err != nil {
		t.Fatalf("expected elasticsearch target valid, got %v", err)
	}

	pq := &domain.TargetConfig{Name: "p1", Kind: "parquet", DSN: "/tmp/out"}
	if err := v.ValidateTarget(pq); err != nil {
		t.Fatalf("expected parquet target valid, got %v", err)
	}

	sqliteBad := &domain.TargetConfig{Name: "s1", Kind: "sqlite", DSN: "/tmp/x.db", Database: "not_allowed"}
	if err := v.ValidateTarget(sqliteBad); err == nil {
		t.Fatal("expected sqlite database field to be rejected")
	}

	unknown := &domain.TargetConfig{Name: "x", Kind: "mongo", DSN: "mongodb://x"}
	if err := v.ValidateTarget(unknown); err == nil {
		t.Fatal("expected unsupported kind error")
	}
}

func TestValidateSchemaForTarget(t *testing.T) {
	schema := domain.TableSchema{
		Name:    "readings",
		Columns: []domain.SchemaColumn{{Name: "my col", Kind: domain.ColumnKindNumeric}},
	}
	if err := ValidateSchemaForTarget(domain.TargetKindPostgres, schema); err == nil {
		t.Fatal("expected postgres to reject column name with a space")
	}
	if err := ValidateSchemaForTarget(domain.TargetKindCSV, schema); err != nil {
		t.Fatalf("expected csv to accept any column name, got %v", err)
	}
}
