package runs

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmrzaf/tabgen/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo := NewSQLiteRepository(filepath.Join(t.TempDir(), "runs.db"))
	if err := repo.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestInitCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "runs.db")
	repo := NewSQLiteRepository(dbPath)

	if err := repo.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if repo.DB() == nil {
		t.Fatal("expected db handle to be initialized")
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
}

func TestInitIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	for i := 0; i < 2; i++ {
		repo := NewSQLiteRepository(dbPath)
		if err := repo.Init(); err != nil {
			t.Fatalf("init %d failed: %v", i, err)
		}
		_ = repo.Close()
	}
}

func TestRunLifecycle(t *testing.T) {
	repo := newTestRepo(t)

	started := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	run := &domain.Run{
		SpecID:      "sensors",
		SpecName:    "sensors",
		SpecVersion: "1",
		TargetID:    "local",
		TargetName:  "local",
		TargetKind:  "sqlite",
		TargetTable: "readings",
		Seed:        42,
		Mode:        "create",
		Rows:        100,
		Cols:        3,
		ConfigHash:  "abc",
		Status:      domain.RunStatusRunning,
		StartedAt:   started,
	}
	if err := repo.Create(run); err != nil {
		t.Fatal(err)
	}
	if run.ID == "" {
		t.Fatal("expected generated id")
	}

	if err := repo.UpdateProgress(run.ID, 50, 100); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProgressRowsWritten != 50 || got.ProgressRowsTotal != 100 {
		t.Fatalf("unexpected progress: %#v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("unexpected started_at %v", got.StartedAt)
	}
	if got.CompletedAt != nil {
		t.Fatal("expected no completed_at yet")
	}

	done := started.Add(time.Minute)
	stats, _ := json.Marshal(domain.RunStats{RowsWritten: 100, Batches: 1})
	run.Status = domain.RunStatusSuccess
	run.CompletedAt = &done
	run.Stats = stats
	run.ProgressRowsWritten = 100
	run.ProgressRowsTotal = 100
	if err := repo.Update(run); err != nil {
		t.Fatal(err)
	}

	got, err = repo.Get(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.RunStatusSuccess || got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("unexpected run after update: %#v", got)
	}
	var rs domain.RunStats
	if err := json.Unmarshal(got.Stats, &rs); err != nil || rs.RowsWritten != 100 {
		t.Fatalf("unexpected stats %s: %v", got.Stats, err)
	}

	list, err := repo.List(10, string(domain.RunStatusSuccess))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one successful run, got %d", len(list))
	}
	list, err = repo.List(10, string(domain.RunStatusFailed))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no failed runs, got %d", len(list))
	}

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunLogs(t *testing.T) {
	repo := newTestRepo(t)
	for _, msg := range []string{"first", "second", "third"} {
		if err := repo.AppendRunLog("r1", "info", msg); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.AppendRunLog("r2", "info", "other"); err != nil {
		t.Fatal(err)
	}

	logs, err := repo.ListRunLogs("r1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 || logs[0].Message != "third" || logs[1].Message != "second" {
		t.Fatalf("unexpected logs: %#v", logs)
	}
}

func TestRebind(t *testing.T) {
	s := &store{postgres: true}
	if got := s.q("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("unexpected rebind %q", got)
	}
	s.postgres = false
	if got := s.q("a = ?"); got != "a = ?" {
		t.Fatalf("unexpected sqlite query %q", got)
	}
}
