package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmrzaf/tabgen/internal/app"
	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/repos/runs"
	"github.com/mmrzaf/tabgen/internal/infra/repos/specs"
	"github.com/mmrzaf/tabgen/internal/infra/repos/targets"
	"github.com/mmrzaf/tabgen/internal/infra/targets/files"
	"github.com/mmrzaf/tabgen/internal/stats"
	"github.com/mmrzaf/tabgen/internal/validation"
)

type Handler struct {
	targetRepo targets.Repository
	runService *app.RunService
	validator  *validation.Validator
}

func NewHandler(targetRepo targets.Repository, runService *app.RunService) *Handler {
	return &Handler{
		targetRepo: targetRepo,
		runService: runService,
		validator:  validation.NewValidator(nil),
	}
}

type columnPayload struct {
	Name   string            `json:"name"`
	Kind   domain.ColumnKind `json:"kind"`
	Values any               `json:"values"`
}

type tablePayload struct {
	Seed     int64           `json:"seed"`
	Cached   bool            `json:"cached"`
	RowCount int             `json:"row_count"`
	Index    []time.Time     `json:"index,omitempty"`
	Columns  []columnPayload `json:"columns"`
}

func newTablePayload(res *app.GenerateResult) tablePayload {
	t := res.Table
	p := tablePayload{Seed: res.Seed, Cached: res.Cached, RowCount: t.RowCount, Index: t.Index}
	p.Columns = make([]columnPayload, len(t.Columns))
	for i, c := range t.Columns {
		cp := columnPayload{Name: c.Name, Kind: c.Kind}
		if c.Kind == domain.ColumnKindNumeric {
			cp.Values = c.Floats
		} else {
			cp.Values = c.Strings
		}
		p.Columns[i] = cp
	}
	return p
}

// Generate returns a table as column-oriented JSON, or as CSV with
// ?format=csv.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	res, err := h.runService.Generate(r.Context(), &req)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, res)
		return
	}
	writeJSON(w, newTablePayload(res))
}

func writeCSV(w http.ResponseWriter, res *app.GenerateResult) {
	t := res.Table
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("X-Tabgen-Seed", strconv.FormatInt(res.Seed, 10))
	cw := csv.NewWriter(w)
	_ = cw.Write(t.Schema("").ColumnNames())
	for i := 0; i < t.RowCount; i++ {
		row := t.Row(i)
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = files.FormatValue(v)
		}
		_ = cw.Write(rec)
	}
	cw.Flush()
}

type describePayload struct {
	Seed      int64           `json:"seed"`
	RowCount  int             `json:"row_count"`
	Summaries []stats.Summary `json:"summaries"`
}

func (h *Handler) Describe(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	res, err := h.runService.Generate(r.Context(), &req)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, describePayload{
		Seed:      res.Seed,
		RowCount:  res.Table.RowCount,
		Summaries: stats.Describe(res.Table),
	})
}

func (h *Handler) ListSpecs(w http.ResponseWriter, r *http.Request) {
	list, err := h.runService.ListSpecs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) GetSpec(w http.ResponseWriter, r *http.Request) {
	spec, err := h.runService.GetSpec(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, spec)
}

// Targets CRUD (DB-backed) with DSN redacted on output

func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	list, err := h.targetRepo.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, targets.RedactTargets(list))
}

func (h *Handler) GetTarget(w http.ResponseWriter, r *http.Request) {
	t, err := h.targetRepo.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, targets.RedactTarget(t))
}

func (h *Handler) CreateTarget(w http.ResponseWriter, r *http.Request) {
	var t domain.TargetConfig
	if err := decodeJSONStrict(r, &t); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validator.ValidateTarget(&t); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.targetRepo.Create(&t); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSONStatus(w, http.StatusCreated, targets.RedactTarget(&t))
}

func (h *Handler) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var t domain.TargetConfig
	if err := decodeJSONStrict(r, &t); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if t.ID != "" && t.ID != id {
		http.Error(w, "id mismatch", http.StatusBadRequest)
		return
	}
	t.ID = id
	if err := h.validator.ValidateTarget(&t); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.targetRepo.Update(&t); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, targets.RedactTarget(&t))
}

func (h *Handler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	if err := h.targetRepo.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTargetChecks(w http.ResponseWriter, r *http.Request) {
	checks, err := h.targetRepo.ListChecks(chi.URLParam(r, "id"), queryLimit(r, 20, 200))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, checks)
}

// TestTarget reports a failed check with 200; only an unknown target is
// an HTTP error.
func (h *Handler) TestTarget(w http.ResponseWriter, r *http.Request) {
	res, err := h.runService.TestTarget(r.Context(), chi.URLParam(r, "id"))
	if res != nil {
		writeJSON(w, res)
		return
	}
	writeError(w, err, http.StatusBadRequest)
}

// Runs

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req domain.RunRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	run, err := h.runService.StartRun(r.Context(), &req)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	writeJSONStatus(w, http.StatusCreated, run)
}

func (h *Handler) PlanRun(w http.ResponseWriter, r *http.Request) {
	var req domain.RunRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	plan, err := h.runService.PlanRun(&req)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, plan)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	list, err := h.runService.ListRuns(queryLimit(r, 50, 500), r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runService.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

func (h *Handler) GetRunLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.runService.ListRunLogs(chi.URLParam(r, "id"), queryLimit(r, 200, 2000))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, logs)
}

func queryLimit(r *http.Request, def, max int) int {
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= max {
			return n
		}
	}
	return def
}

type errorPayload struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Column string `json:"column,omitempty"`
}

// writeError maps validation failures to 400 and missing records to 404;
// anything else gets fallback.
func writeError(w http.ResponseWriter, err error, fallback int) {
	status := fallback
	p := errorPayload{Error: err.Error()}

	var se *domain.SpecError
	switch {
	case errors.As(err, &se):
		status = http.StatusBadRequest
		p.Kind = se.Kind.Error()
		p.Column = se.Column
	case errors.Is(err, specs.ErrNotFound), errors.Is(err, targets.ErrNotFound), errors.Is(err, runs.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSONStatus(w, status, p)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v before committing the status, so a value that
// cannot be encoded becomes a 500 with an error body.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorPayload{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func decodeJSONStrict(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
