package targets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/repos/runs"
)

func TestSQLiteTargetsCRUD(t *testing.T) {
	f, err := os.CreateTemp("", "tabgen_runs_*.db")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	_ = f.Close()

	runRepo := runs.NewSQLiteRepository(f.Name())
	if err := runRepo.Init(); err != nil {
		t.Fatal(err)
	}
	repo := NewSQLiteRepository(runRepo.DB())

	tgt := &domain.TargetConfig{
		Name:     "t1",
		Kind:     "postgres",
		DSN:      "postgres://u:p@localhost:5432/postgres?sslmode=disable",
		Database: "appdb",
		Schema:   "public",
	}
	if err := repo.Create(tgt); err != nil {
		t.Fatal(err)
	}
	if tgt.ID == "" {
		t.Fatal("expected id")
	}

	got, err := repo.Get(tgt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "t1" || got.Kind != "postgres" {
		t.Fatalf("unexpected: %#v", got)
	}
	if got.DSN != "postgres://u:p@localhost:5432/postgres?sslmode=disable" {
		t.Fatalf("expected raw DSN in DB-backed read, got %q", got.DSN)
	}
	if got.Database != "appdb" {
		t.Fatalf("expected database field, got %#v", got)
	}
	if RedactTarget(got).DSN == got.DSN {
		t.Fatalf("expected redacted DSN to differ from raw")
	}

	got.Name = "t1b"
	if err := repo.Update(got); err != nil {
		t.Fatal(err)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "t1b" {
		t.Fatalf("unexpected list: %#v", list)
	}

	if err := repo.Delete(tgt.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(tgt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(tgt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteTargetChecks(t *testing.T) {
	runRepo := runs.NewSQLiteRepository(filepath.Join(t.TempDir(), "runs.db"))
	if err := runRepo.Init(); err != nil {
		t.Fatal(err)
	}
	defer runRepo.Close()
	repo := NewSQLiteRepository(runRepo.DB())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		c := &domain.TargetCheck{
			TargetID:     "t1",
			CheckedAt:    base.Add(time.Duration(i) * time.Minute),
			OK:           i != 1,
			LatencyMS:    int64(i),
			Capabilities: domain.TargetCapabilities{CanCreate: true, CanInsert: i == 2},
		}
		if i == 1 {
			c.Error = "connection refused"
		}
		if err := repo.RecordCheck(c); err != nil {
			t.Fatal(err)
		}
	}

	checks, err := repo.ListChecks("t1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(checks))
	}
	if !checks[0].OK || !checks[0].Capabilities.CanInsert || checks[0].LatencyMS != 2 {
		t.Fatalf("unexpected newest check: %#v", checks[0])
	}
	if checks[1].OK || checks[1].Error != "connection refused" {
		t.Fatalf("unexpected failed check: %#v", checks[1])
	}
}
