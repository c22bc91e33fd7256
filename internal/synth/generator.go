package synth

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/generators"
	"github.com/mmrzaf/tabgen/internal/registry"
	"github.com/mmrzaf/tabgen/internal/validation"
)

type Config struct {
	// Seed fixes the random source. Nil draws one from crypto/rand; the
	// drawn value is still reported by Generator.Seed.
	Seed *int64
	// DefaultCategoricalValues fill categorical columns that name no
	// categories of their own.
	DefaultCategoricalValues []string
}

type Generator struct {
	rng       *rand.Rand
	seed      int64
	defaults  []string
	samplers  *registry.SamplerRegistry
	validator *validation.Validator
	now       func() time.Time
}

type Option func(*Generator)

// WithRegistry swaps the column type registry, e.g. to add type aliases.
func WithRegistry(r *registry.SamplerRegistry) Option {
	return func(g *Generator) {
		g.samplers = r
		g.validator = validation.NewValidator(r)
	}
}

// WithClock fixes the time relative index starts are resolved against.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := validation.ValidateCategories(cfg.DefaultCategoricalValues); err != nil {
		return nil, err
	}

	seed := generateSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	samplers := registry.DefaultSamplerRegistry()
	g := &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		seed:      seed,
		defaults:  append([]string(nil), cfg.DefaultCategoricalValues...),
		samplers:  samplers,
		validator: validation.NewValidator(samplers),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewWithSeed is New with a fixed seed and no default categories.
func NewWithSeed(seed int64) *Generator {
	g, _ := New(Config{Seed: &seed})
	return g
}

func generateSeed() int64 {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func (g *Generator) Seed() int64 { return g.seed }

// Reseed restarts the random stream as if the generator had just been
// built with seed.
func (g *Generator) Reseed(seed int64) {
	g.seed = seed
	g.rng = rand.New(rand.NewSource(seed))
}

// SetCategoricalValues replaces the default categories. The slice is
// copied; later edits by the caller have no effect.
func (g *Generator) SetCategoricalValues(values []string) error {
	if err := validation.ValidateCategories(values); err != nil {
		return err
	}
	g.defaults = append([]string(nil), values...)
	return nil
}

// Config returns a snapshot. Mutating it does not affect the generator.
func (g *Generator) Config() Config {
	seed := g.seed
	return Config{
		Seed:                     &seed,
		DefaultCategoricalValues: append([]string(nil), g.defaults...),
	}
}

// Normalize resolves req into full column specs without drawing anything.
func (g *Generator) Normalize(req *domain.TabularRequest) ([]domain.ColumnSpec, error) {
	return g.validator.Normalize(req, g.defaults)
}

// GenerateTabular validates req in full and then samples every column
// left to right. On error nothing has been drawn from the source.
func (g *Generator) GenerateTabular(req *domain.TabularRequest) (*domain.Table, error) {
	specs, err := g.Normalize(req)
	if err != nil {
		return nil, err
	}

	var index []time.Time
	if req.Index != nil {
		for _, spec := range specs {
			if domain.CollidesWithIndex(spec.Name) {
				return nil, domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "name is reserved for the row index")
			}
		}
		plan, err := generators.ParseIndex(*req.Index, g.now())
		if err != nil {
			return nil, err
		}
		if index, err = plan.Build(req.Rows); err != nil {
			return nil, err
		}
	}

	table, err := g.Generate(specs, req.Rows)
	if err != nil {
		return nil, err
	}
	table.Index = index
	return table, nil
}

// Generate samples already normalized specs. Every spec is checked before
// the first draw.
func (g *Generator) Generate(specs []domain.ColumnSpec, rows int) (*domain.Table, error) {
	if rows <= 0 {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "", "rows must be > 0, got %d", rows)
	}
	if len(specs) == 0 {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "", "at least one column is required")
	}

	samplers := make([]generators.Sampler, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for i, spec := range specs {
		if _, dup := seen[spec.Name]; dup || spec.Name == "" {
			return nil, domain.NewSpecError(domain.ErrInvalidParameter, spec.Name, "column names must be unique and non-empty")
		}
		seen[spec.Name] = struct{}{}

		s, err := g.samplers.ForKind(spec.Kind)
		if err != nil {
			return nil, domain.NewSpecError(domain.ErrUnknownColumnType, spec.Name, "kind %q", spec.Kind)
		}
		if err := s.Validate(spec); err != nil {
			return nil, err
		}
		samplers[i] = s
	}

	cols := make([]domain.Column, len(specs))
	for i, spec := range specs {
		col, err := samplers[i].Sample(g.rng, spec, rows)
		if err != nil {
			return nil, fmt.Errorf("sample column %q: %w", spec.Name, err)
		}
		cols[i] = col
	}
	return Assemble(cols, rows)
}
