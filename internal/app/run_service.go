package app

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/exec"
	"github.com/mmrzaf/tabgen/internal/generators"
	"github.com/mmrzaf/tabgen/internal/hashing"
	"github.com/mmrzaf/tabgen/internal/infra/cache"
	"github.com/mmrzaf/tabgen/internal/infra/repos/runs"
	"github.com/mmrzaf/tabgen/internal/logging"
	"github.com/mmrzaf/tabgen/internal/synth"
	"github.com/mmrzaf/tabgen/internal/validation"
)

type SpecStore interface {
	List() ([]*domain.TableSpec, error)
	Get(id string) (*domain.TableSpec, error)
}

type TargetStore interface {
	Get(id string) (*domain.TargetConfig, error)
}

type checkRecorder interface {
	RecordCheck(c *domain.TargetCheck) error
}

type RunService struct {
	specRepo   SpecStore
	targetRepo TargetStore
	runRepo    runs.Repository
	cache      cache.TableCache
	validator  *validation.Validator
	executor   *exec.Executor
	logger     *logging.Logger
	defaults   []string
}

func NewRunService(
	specRepo SpecStore,
	targetRepo TargetStore,
	runRepo runs.Repository,
	tableCache cache.TableCache,
	logger *logging.Logger,
	batchSize int,
) *RunService {
	if tableCache == nil {
		tableCache = cache.Nop{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &RunService{
		specRepo:   specRepo,
		targetRepo: targetRepo,
		runRepo:    runRepo,
		cache:      tableCache,
		validator:  validation.NewValidator(nil),
		executor:   exec.NewExecutor(batchSize),
		logger:     logger.WithComponent("run_service"),
	}
}

// SetDefaultCategories sets the categories used by requests and specs that
// bring none of their own.
func (s *RunService) SetDefaultCategories(values []string) error {
	if err := validation.ValidateCategories(values); err != nil {
		return err
	}
	s.defaults = append([]string(nil), values...)
	return nil
}

type GenerateResult struct {
	Table  *domain.Table
	Seed   int64
	Cached bool
}

// Generate builds a fresh Generator for req. Seeded requests with a fixed
// index start are served from the table cache when possible.
func (s *RunService) Generate(ctx context.Context, req *domain.GenerateRequest) (*GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defaults := s.defaults
	if len(req.DefaultCategories) > 0 {
		defaults = req.DefaultCategories
	}

	var key string
	if req.Seed != nil && absoluteIndex(req.Request.Index) {
		k, err := hashing.HashRequest(&req.Request, *req.Seed, defaults)
		if err != nil {
			return nil, fmt.Errorf("failed to hash request: %w", err)
		}
		key = k
		if t, ok, err := s.cache.Get(key); err != nil {
			s.logger.Warnw("cache.get_failed", map[string]any{"key": key, "error": err.Error()})
		} else if ok {
			s.logger.Debugw("cache.hit", map[string]any{"key": key, "rows": t.RowCount})
			return &GenerateResult{Table: t, Seed: *req.Seed, Cached: true}, nil
		}
	}

	g, err := synth.New(synth.Config{Seed: req.Seed, DefaultCategoricalValues: defaults})
	if err != nil {
		return nil, err
	}
	table, err := g.GenerateTabular(&req.Request)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.Put(key, table); err != nil {
			s.logger.Warnw("cache.put_failed", map[string]any{"key": key, "error": err.Error()})
		}
	}
	return &GenerateResult{Table: table, Seed: g.Seed()}, nil
}

func absoluteIndex(idx *domain.IndexSpec) bool {
	if idx == nil {
		return true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if _, err := time.Parse(layout, idx.Start); err == nil {
			return true
		}
	}
	return false
}

type resolvedRun struct {
	spec    *domain.TableSpec
	target  *domain.TargetConfig
	request domain.TabularRequest
	columns []domain.ColumnSpec
	plan    *domain.RunPlan
}

func (s *RunService) resolve(req *domain.RunRequest) (*resolvedRun, error) {
	if err := s.validator.ValidateRunRequest(req, s.defaults); err != nil {
		return nil, fmt.Errorf("invalid run request: %w", err)
	}

	spec := req.Spec
	if req.SpecID != "" {
		loaded, err := s.specRepo.Get(req.SpecID)
		if err != nil {
			return nil, fmt.Errorf("failed to load spec: %w", err)
		}
		if err := s.validator.ValidateTableSpec(loaded, s.defaults); err != nil {
			return nil, fmt.Errorf("spec validation failed: %w", err)
		}
		spec = loaded
	}

	targetCfg := req.Target
	if req.TargetID != "" {
		loaded, err := s.targetRepo.Get(req.TargetID)
		if err != nil {
			return nil, fmt.Errorf("failed to load target: %w", err)
		}
		if err := s.validator.ValidateTarget(loaded); err != nil {
			return nil, fmt.Errorf("target validation failed: %w", err)
		}
		targetCfg = loaded
	}

	var warnings []string
	request := spec.Request
	if req.Rows != nil {
		request.Rows = *req.Rows
	}

	table := req.TargetTable
	if table == "" {
		table = spec.TargetTable
	}
	if table == "" {
		table = spec.Name
		warnings = append(warnings, fmt.Sprintf("no target_table given; using spec name %q", table))
	}
	if !validation.IsValidIdentifier(table) {
		return nil, fmt.Errorf("invalid target_table identifier: %s", table)
	}

	var seed int64
	switch {
	case req.Seed != nil:
		seed = *req.Seed
	case spec.Seed != nil:
		seed = *spec.Seed
	default:
		seed = generateSeed()
		warnings = append(warnings, "no seed given; drew one at random")
	}

	defaults := validation.EffectiveDefaults(spec.DefaultCategories, s.defaults)
	columns, err := s.validator.Normalize(&request, defaults)
	if err != nil {
		return nil, err
	}

	if request.Index != nil {
		if _, err := generators.ParseIndex(*request.Index, time.Now()); err != nil {
			return nil, err
		}
	}

	schema := domain.TableSchema{Name: table, HasIndex: request.Index != nil}
	for _, c := range columns {
		if request.Index != nil && domain.CollidesWithIndex(c.Name) {
			return nil, domain.NewSpecError(domain.ErrInvalidParameter, c.Name, "name is reserved for the row index")
		}
		schema.Columns = append(schema.Columns, domain.SchemaColumn{Name: c.Name, Kind: c.Kind})
	}
	if err := validation.ValidateSchemaForTarget(targetCfg.Kind, schema); err != nil {
		return nil, err
	}

	if targetCfg.Kind == domain.TargetKindParquet && req.Mode == domain.TableModeAppend {
		warnings = append(warnings, "parquet files cannot be appended; the run fails if the file exists")
	}

	resolvedSpec := *spec
	resolvedSpec.Request = request
	configHash, err := hashing.HashRunConfig(&resolvedSpec, targetCfg, table, req.Mode, request.Rows, seed, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to hash run config: %w", err)
	}

	return &resolvedRun{
		spec:    &resolvedSpec,
		target:  targetCfg,
		request: request,
		columns: columns,
		plan: &domain.RunPlan{
			SpecID:      spec.ID,
			SpecName:    spec.Name,
			TargetID:    targetCfg.ID,
			TargetName:  targetCfg.Name,
			TargetKind:  targetCfg.Kind,
			TargetTable: table,
			Mode:        req.Mode,
			Seed:        seed,
			Rows:        request.Rows,
			Columns:     columns,
			ConfigHash:  configHash,
			Warnings:    warnings,
		},
	}, nil
}

// PlanRun resolves req without generating or writing anything.
func (s *RunService) PlanRun(req *domain.RunRequest) (*domain.RunPlan, error) {
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	return r.plan, nil
}

// StartRun records a run and executes it in the background. The returned
// run is in the running state; poll GetRun for the outcome.
func (s *RunService) StartRun(ctx context.Context, req *domain.RunRequest) (*domain.Run, error) {
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	p := r.plan

	run := &domain.Run{
		SpecID:            p.SpecID,
		SpecName:          p.SpecName,
		SpecVersion:       r.spec.Version,
		TargetID:          p.TargetID,
		TargetName:        p.TargetName,
		TargetKind:        p.TargetKind,
		TargetTable:       p.TargetTable,
		Seed:              p.Seed,
		Mode:              p.Mode,
		Rows:              p.Rows,
		Cols:              len(p.Columns),
		ConfigHash:        p.ConfigHash,
		Status:            domain.RunStatusRunning,
		StartedAt:         time.Now().UTC(),
		ProgressRowsTotal: int64(p.Rows),
	}
	if err := s.runRepo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Infow("run.started", map[string]any{
		"run_id": run.ID,
		"spec":   run.SpecName,
		"target": run.TargetName,
		"table":  run.TargetTable,
		"rows":   run.Rows,
		"seed":   run.Seed,
	})
	s.runLog(run.ID, "info", fmt.Sprintf("run started: spec=%s target=%s table=%s rows=%d seed=%d",
		run.SpecName, run.TargetName, run.TargetTable, run.Rows, run.Seed))

	snapshot := *run
	go s.executeRun(context.WithoutCancel(ctx), run, r)
	return &snapshot, nil
}

func (s *RunService) executeRun(ctx context.Context, run *domain.Run, r *resolvedRun) {
	genStart := time.Now()
	g := synth.NewWithSeed(run.Seed)
	table, err := g.Generate(r.columns, r.request.Rows)
	if err == nil && r.request.Index != nil {
		table.Index, err = buildIndex(r.request)
	}
	if err != nil {
		s.failRun(run, fmt.Errorf("generate: %w", err))
		return
	}
	genSeconds := time.Since(genStart).Seconds()
	s.runLog(run.ID, "info", fmt.Sprintf("generated %d rows x %d columns in %.3fs", table.RowCount, len(table.Columns), genSeconds))

	target, err := BuildTarget(effectiveTarget(r.target))
	if err != nil {
		s.failRun(run, err)
		return
	}

	progress := func(written, total int64) {
		if err := s.runRepo.UpdateProgress(run.ID, written, total); err != nil {
			s.logger.Warnw("run.progress_failed", map[string]any{"run_id": run.ID, "error": err.Error()})
		}
	}
	stats, err := s.executor.Execute(ctx, table, target, run.TargetTable, run.Mode, progress)
	if err != nil {
		s.failRun(run, err)
		return
	}
	stats.GenerateSeconds = genSeconds
	stats.DurationSeconds = time.Since(run.StartedAt).Seconds()

	now := time.Now().UTC()
	statsJSON, _ := json.Marshal(stats)
	run.Stats = statsJSON
	run.Status = domain.RunStatusSuccess
	run.CompletedAt = &now
	run.ProgressRowsWritten = stats.RowsWritten
	if err := s.runRepo.Update(run); err != nil {
		s.logger.Errorw("run.update_failed", map[string]any{"run_id": run.ID, "error": err.Error()})
	}

	s.runLog(run.ID, "info", fmt.Sprintf("run completed: %d rows in %d batches, %.2fs", stats.RowsWritten, stats.Batches, stats.DurationSeconds))
	s.logger.Infow("run.completed", map[string]any{
		"run_id":   run.ID,
		"rows":     stats.RowsWritten,
		"batches":  stats.Batches,
		"duration": stats.DurationSeconds,
	})
}

// buildIndex resolves the index at execution time, so relative starts are
// anchored to when the run executes.
func buildIndex(req domain.TabularRequest) ([]time.Time, error) {
	plan, err := generators.ParseIndex(*req.Index, time.Now())
	if err != nil {
		return nil, err
	}
	return plan.Build(req.Rows)
}

func (s *RunService) failRun(run *domain.Run, err error) {
	now := time.Now().UTC()
	run.Status = domain.RunStatusFailed
	run.Error = err.Error()
	run.CompletedAt = &now
	if uerr := s.runRepo.Update(run); uerr != nil {
		s.logger.Errorw("run.update_failed", map[string]any{"run_id": run.ID, "error": uerr.Error()})
	}
	s.runLog(run.ID, "error", "run failed: "+err.Error())
	s.logger.Errorw("run.failed", map[string]any{"run_id": run.ID, "error": err.Error()})
}

func (s *RunService) runLog(runID, level, msg string) {
	if err := s.runRepo.AppendRunLog(runID, level, msg); err != nil {
		s.logger.Warnw("run.log_failed", map[string]any{"run_id": runID, "error": err.Error()})
	}
}

func (s *RunService) GetRun(id string) (*domain.Run, error) {
	return s.runRepo.Get(id)
}

func (s *RunService) ListRuns(limit int, status string) ([]*domain.Run, error) {
	return s.runRepo.List(limit, status)
}

func (s *RunService) ListRunLogs(runID string, limit int) ([]*domain.RunLog, error) {
	if _, err := s.runRepo.Get(runID); err != nil {
		return nil, err
	}
	return s.runRepo.ListRunLogs(runID, limit)
}

func (s *RunService) ListSpecs() ([]*domain.TableSpec, error) {
	return s.specRepo.List()
}

func (s *RunService) GetSpec(id string) (*domain.TableSpec, error) {
	return s.specRepo.Get(id)
}

// TestTarget checks a stored target and records the result when the
// target store keeps check history.
func (s *RunService) TestTarget(ctx context.Context, targetID string) (*domain.TargetCheck, error) {
	t, err := s.targetRepo.Get(targetID)
	if err != nil {
		return nil, err
	}
	check, checkErr := CheckTarget(ctx, t)
	if rec, ok := s.targetRepo.(checkRecorder); ok && check != nil {
		if err := rec.RecordCheck(check); err != nil {
			return check, errors.Join(checkErr, fmt.Errorf("record check: %w", err))
		}
	}
	return check, checkErr
}

func generateSeed() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}
