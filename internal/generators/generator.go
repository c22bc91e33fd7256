package generators

import (
	"github.com/mmrzaf/tabgen/internal/domain"
)

// Source is the subset of *math/rand.Rand the samplers draw from, so tests
// can substitute a scripted source.
type Source interface {
	NormFloat64() float64
	Float64() float64
}

// Sampler produces one column's worth of independent draws.
type Sampler interface {
	Kind() domain.ColumnKind
	Validate(spec domain.ColumnSpec) error
	Sample(src Source, spec domain.ColumnSpec, rows int) (domain.Column, error)
}
