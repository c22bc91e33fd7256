package generators

import (
	"math"

	"github.com/mmrzaf/tabgen/internal/domain"
)

type NumericSampler struct{}

func (g *NumericSampler) Kind() domain.ColumnKind { return domain.ColumnKindNumeric }

func (g *NumericSampler) Validate(spec domain.ColumnSpec) error {
	if spec.Kind != domain.ColumnKindNumeric || spec.Numeric == nil || spec.Categorical != nil {
		return domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "numeric column requires numeric params only")
	}
	p := spec.Numeric
	if math.IsNaN(p.Mean) || math.IsInf(p.Mean, 0) {
		return domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "mean must be finite, got %v", p.Mean)
	}
	if !(p.Std > 0) || math.IsInf(p.Std, 0) {
		return domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "std must be > 0, got %v", p.Std)
	}
	if !(p.Noise >= 0 && p.Noise < 1) {
		return domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "noise must be in [0, 1), got %v", p.Noise)
	}
	// Draws stay finite well past ten standard deviations.
	if math.IsInf((math.Abs(p.Mean)+10*p.Std)*(1+p.Noise), 0) {
		return domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "mean %v and std %v overflow float64", p.Mean, p.Std)
	}
	return nil
}

// Sample draws base ~ Normal(mean, std) per row and, when noise > 0,
// perturbs it multiplicatively by base*noise*u with u ~ Uniform(-1, 1).
func (g *NumericSampler) Sample(src Source, spec domain.ColumnSpec, rows int) (domain.Column, error) {
	if err := g.Validate(spec); err != nil {
		return domain.Column{}, err
	}
	p := spec.Numeric
	values := make([]float64, rows)
	for i := range values {
		base := src.NormFloat64()*p.Std + p.Mean
		if p.Noise > 0 {
			u := src.Float64()*2 - 1
			base += base * p.Noise * u
		}
		values[i] = base
	}
	return domain.Column{Name: spec.Name, Kind: domain.ColumnKindNumeric, Floats: values}, nil
}
