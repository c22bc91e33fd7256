package generators

import (
	"math"
	"sort"

	"github.com/mmrzaf/tabgen/internal/domain"
)

type CategoricalSampler struct{}

func (g *CategoricalSampler) Kind() domain.ColumnKind { return domain.ColumnKindCategorical }

func (g *CategoricalSampler) Validate(spec domain.ColumnSpec) error {
	if spec.Kind != domain.ColumnKindCategorical || spec.Categorical == nil || spec.Numeric != nil {
		return domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "categorical column requires categorical params only")
	}
	p := spec.Categorical
	if len(p.Categories) == 0 {
		return domain.NewSpecError(domain.ErrMissingCategories, spec.Name, "no categories")
	}
	seen := make(map[string]struct{}, len(p.Categories))
	for _, c := range p.Categories {
		if c == "" {
			return domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "empty category")
		}
		if _, dup := seen[c]; dup {
			return domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "duplicate category %q", c)
		}
		seen[c] = struct{}{}
	}
	return ValidateProbabilities(spec.Name, p.Probabilities, len(p.Categories))
}

// ValidateProbabilities checks a probability vector against n categories.
// An empty vector means uniform and is always valid.
func ValidateProbabilities(column string, probs []float64, n int) error {
	if len(probs) == 0 {
		return nil
	}
	if len(probs) != n {
		return domain.NewSpecError(domain.ErrInvalidDistribution, column,
			"%d probabilities for %d categories", len(probs), n)
	}
	sum := 0.0
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 {
			return domain.NewSpecError(domain.ErrInvalidDistribution, column, "invalid probability %v", p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > domain.ProbabilityTolerance {
		return domain.NewSpecError(domain.ErrInvalidDistribution, column, "probabilities sum to %v, want 1", sum)
	}
	return nil
}

// Sample draws rows categories with replacement, weighted by the column's
// probabilities (uniform when none are given).
func (g *CategoricalSampler) Sample(src Source, spec domain.ColumnSpec, rows int) (domain.Column, error) {
	if err := g.Validate(spec); err != nil {
		return domain.Column{}, err
	}
	p := spec.Categorical
	cum, last := cumulativeWeights(p.Probabilities, len(p.Categories))
	total := cum[len(cum)-1]

	values := make([]string, rows)
	for i := range values {
		r := src.Float64() * total
		idx := sort.Search(len(cum), func(k int) bool { return cum[k] > r })
		if idx == len(cum) {
			idx = last
		}
		values[i] = p.Categories[idx]
	}
	return domain.Column{Name: spec.Name, Kind: domain.ColumnKindCategorical, Strings: values}, nil
}

// cumulativeWeights returns running weight totals and the index of the last
// category with positive weight. Zero-weight categories share their
// predecessor's total so the search never lands on them.
func cumulativeWeights(probs []float64, n int) ([]float64, int) {
	cum := make([]float64, n)
	last := n - 1
	running := 0.0
	for i := 0; i < n; i++ {
		w := 1.0
		if len(probs) == n {
			w = probs[i]
		}
		if w > 0 {
			last = i
		}
		running += w
		cum[i] = running
	}
	return cum, last
}
