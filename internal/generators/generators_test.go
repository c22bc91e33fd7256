package generators

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/tabgen/internal/domain"
)

// scriptedSource replays fixed draws so sampler arithmetic can be checked exactly.
type scriptedSource struct {
	norms    []float64
	uniforms []float64
}

func (s *scriptedSource) NormFloat64() float64 {
	v := s.norms[0]
	s.norms = s.norms[1:]
	return v
}

func (s *scriptedSource) Float64() float64 {
	v := s.uniforms[0]
	s.uniforms = s.uniforms[1:]
	return v
}

func numericSpec(mean, std, noise float64) domain.ColumnSpec {
	return domain.ColumnSpec{
		Name:    "x",
		Kind:    domain.ColumnKindNumeric,
		Numeric: &domain.NumericParams{Mean: mean, Std: std, Noise: noise},
	}
}

func categoricalSpec(cats []string, probs []float64) domain.ColumnSpec {
	return domain.ColumnSpec{
		Name:        "c",
		Kind:        domain.ColumnKindCategorical,
		Categorical: &domain.CategoricalParams{Categories: cats, Probabilities: probs},
	}
}

func TestNumericSampler_AffineWithoutNoise(t *testing.T) {
	src := &scriptedSource{norms: []float64{0, 1, -2}}
	col, err := (&NumericSampler{}).Sample(src, numericSpec(100, 10, 0), 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 110, 80}, col.Floats)
	assert.Empty(t, src.uniforms)
}

func TestNumericSampler_MultiplicativeNoise(t *testing.T) {
	// u = 0.75*2-1 = 0.5; 10 + 10*0.2*0.5 = 11
	// u = 0*2-1 = -1;    10 + 10*0.2*-1 = 8
	src := &scriptedSource{norms: []float64{0, 0}, uniforms: []float64{0.75, 0}}
	col, err := (&NumericSampler{}).Sample(src, numericSpec(10, 1, 0.2), 2)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, col.Floats[0], 1e-12)
	assert.InDelta(t, 8.0, col.Floats[1], 1e-12)
}

func TestNumericSampler_NoiseStaysNearBase(t *testing.T) {
	src := rand.New(rand.NewSource(3))
	spec := numericSpec(50, 5, 0.3)
	col, err := (&NumericSampler{}).Sample(src, spec, 2000)
	require.NoError(t, err)
	for _, v := range col.Floats {
		require.False(t, math.IsNaN(v))
		require.Greater(t, v, 0.0)
	}
}

func TestNumericSampler_Validate(t *testing.T) {
	s := &NumericSampler{}
	require.NoError(t, s.Validate(numericSpec(0, 1, 0)))
	require.ErrorIs(t, s.Validate(numericSpec(0, 0, 0)), domain.ErrInvalidParameter)
	require.ErrorIs(t, s.Validate(numericSpec(0, math.Inf(1), 0)), domain.ErrInvalidParameter)
	require.ErrorIs(t, s.Validate(numericSpec(0, 1, 1)), domain.ErrInvalidParameter)
	require.ErrorIs(t, s.Validate(numericSpec(math.NaN(), 1, 0)), domain.ErrInvalidParameter)
	require.ErrorIs(t, s.Validate(numericSpec(1e308, 1e308, 0)), domain.ErrInvalidParameter)
	require.ErrorIs(t, s.Validate(numericSpec(0, math.MaxFloat64/5, 0)), domain.ErrInvalidParameter)
	require.NoError(t, s.Validate(numericSpec(1e300, 1e300, 0.5)))
	require.ErrorIs(t, s.Validate(categoricalSpec([]string{"A"}, nil)), domain.ErrInvalidParameter)
}

func TestCategoricalSampler_UniformBuckets(t *testing.T) {
	src := &scriptedSource{uniforms: []float64{0, 0.34, 0.99, 0.5}}
	col, err := (&CategoricalSampler{}).Sample(src, categoricalSpec([]string{"A", "B", "C"}, nil), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "B"}, col.Strings)
}

func TestCategoricalSampler_DegenerateDistribution(t *testing.T) {
	src := rand.New(rand.NewSource(1))
	col, err := (&CategoricalSampler{}).Sample(src, categoricalSpec([]string{"A", "B"}, []float64{1, 0}), 1000)
	require.NoError(t, err)
	for _, v := range col.Strings {
		require.Equal(t, "A", v)
	}
}

func TestCategoricalSampler_ZeroWeightNeverDrawn(t *testing.T) {
	// 0.5 and the top of the range must both land on a positive-weight category.
	src := &scriptedSource{uniforms: []float64{0.5, 0.9999999999}}
	col, err := (&CategoricalSampler{}).Sample(src, categoricalSpec([]string{"A", "B", "C"}, []float64{0.5, 0.5, 0}), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "B"}, col.Strings)
}

func TestCategoricalSampler_Frequencies(t *testing.T) {
	src := rand.New(rand.NewSource(42))
	const n = 20000
	col, err := (&CategoricalSampler{}).Sample(src, categoricalSpec([]string{"A", "B", "C"}, []float64{0.7, 0.2, 0.1}), n)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, v := range col.Strings {
		counts[v]++
	}
	assert.InDelta(t, 0.7, float64(counts["A"])/n, 0.02)
	assert.InDelta(t, 0.2, float64(counts["B"])/n, 0.02)
	assert.InDelta(t, 0.1, float64(counts["C"])/n, 0.02)
}

func TestValidateProbabilities(t *testing.T) {
	require.NoError(t, ValidateProbabilities("c", nil, 3))
	require.NoError(t, ValidateProbabilities("c", []float64{0.25, 0.25, 0.5}, 3))
	require.ErrorIs(t, ValidateProbabilities("c", []float64{0.5, 0.5}, 3), domain.ErrInvalidDistribution)
	require.ErrorIs(t, ValidateProbabilities("c", []float64{0.5, 0.4, 0.2}, 3), domain.ErrInvalidDistribution)
	require.ErrorIs(t, ValidateProbabilities("c", []float64{math.NaN(), 0.5, 0.5}, 3), domain.ErrInvalidDistribution)
}

func TestCategoricalSampler_ValidateCategories(t *testing.T) {
	s := &CategoricalSampler{}
	require.ErrorIs(t, s.Validate(categoricalSpec(nil, nil)), domain.ErrMissingCategories)
	require.ErrorIs(t, s.Validate(categoricalSpec([]string{"A", "A"}, nil)), domain.ErrInvalidParameter)
	require.ErrorIs(t, s.Validate(categoricalSpec([]string{""}, nil)), domain.ErrInvalidParameter)
}

func TestParseIndex(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	plan, err := ParseIndex(domain.IndexSpec{Start: "2024-01-01T00:00:00Z", Step: "1d"}, now)
	require.NoError(t, err)
	ts, err := plan.Build(3)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}, ts)

	rel, err := ParseIndex(domain.IndexSpec{Start: "-2d", Step: "1h"}, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-48*time.Hour), rel.Start)

	_, err = ParseIndex(domain.IndexSpec{Start: "yesterday", Step: "1h"}, now)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	_, err = ParseIndex(domain.IndexSpec{Start: "-1d", Step: "0s"}, now)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}
