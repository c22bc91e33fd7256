package generators

import (
	"fmt"
	"time"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/timeutil"
)

// IndexPlan is a parsed IndexSpec.
type IndexPlan struct {
	Start time.Time
	Step  time.Duration
}

// ParseIndex resolves an IndexSpec against now. Relative starts such as
// "-30d" therefore depend on the clock; RFC3339 starts do not.
func ParseIndex(spec domain.IndexSpec, now time.Time) (IndexPlan, error) {
	start, err := timeutil.ParseRelativeTime(spec.Start, now)
	if err != nil {
		return IndexPlan{}, domain.NewSpecError(domain.ErrInvalidParameter, "", "invalid index start: %v", err)
	}
	step, err := timeutil.ParseDuration(spec.Step)
	if err != nil {
		return IndexPlan{}, domain.NewSpecError(domain.ErrInvalidParameter, "", "invalid index step: %v", err)
	}
	if step <= 0 {
		return IndexPlan{}, domain.NewSpecError(domain.ErrInvalidParameter, "", "index step must be > 0, got %s", spec.Step)
	}
	return IndexPlan{Start: start.UTC(), Step: step}, nil
}

// Build returns rows timestamps start, start+step, ... It draws nothing from
// the random source.
func (p IndexPlan) Build(rows int) ([]time.Time, error) {
	if rows < 0 {
		return nil, fmt.Errorf("negative row count %d", rows)
	}
	out := make([]time.Time, rows)
	for i := range out {
		out[i] = p.Start.Add(time.Duration(i) * p.Step)
	}
	return out, nil
}
