package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/registry"
)

func f64(v float64) *float64 { return &v }

func newValidator() *Validator {
	return NewValidator(registry.DefaultSamplerRegistry())
}

func TestNormalize_Defaults(t *testing.T) {
	specs, err := newValidator().Normalize(&domain.TabularRequest{Rows: 10, Cols: 3}, nil)
	require.NoError(t, err)
	require.Len(t, specs, 3)
	for i, s := range specs {
		assert.Equal(t, DefaultColumnName(i), s.Name)
		assert.Equal(t, domain.ColumnKindNumeric, s.Kind)
		require.NotNil(t, s.Numeric)
		assert.Equal(t, domain.NumericParams{Mean: 0, Std: 1, Noise: 0}, *s.Numeric)
		assert.Nil(t, s.Categorical)
	}
}

func TestNormalize_InterleavedParamsAlignByKind(t *testing.T) {
	req := &domain.TabularRequest{
		Rows:     5,
		Cols:     4,
		ColTypes: []string{"categorical", "numeric", "categorical", "numeric"},
		NumericParams: []domain.NumericOverride{
			{Mean: f64(10), Std: f64(2)},
			{Mean: f64(-5)},
		},
		CategoricalParams: []domain.CategoricalOverride{
			{Categories: []string{"x", "y"}},
			{Categories: []string{"p", "q", "r"}, Probabilities: []float64{0.2, 0.3, 0.5}},
		},
	}
	specs, err := newValidator().Normalize(req, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, specs[0].Categorical.Categories)
	assert.Equal(t, 10.0, specs[1].Numeric.Mean)
	assert.Equal(t, 2.0, specs[1].Numeric.Std)
	assert.Equal(t, []string{"p", "q", "r"}, specs[2].Categorical.Categories)
	assert.Equal(t, []float64{0.2, 0.3, 0.5}, specs[2].Categorical.Probabilities)
	assert.Equal(t, -5.0, specs[3].Numeric.Mean)
	assert.Equal(t, 1.0, specs[3].Numeric.Std)
}

func TestNormalize_TypeTokensAreCaseInsensitive(t *testing.T) {
	req := &domain.TabularRequest{Rows: 1, Cols: 2, ColTypes: []string{" Numeric", "CATEGORICAL "}}
	specs, err := newValidator().Normalize(req, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, domain.ColumnKindNumeric, specs[0].Kind)
	assert.Equal(t, domain.ColumnKindCategorical, specs[1].Kind)
}

func TestNormalize_GlobalNoiseAndColumnOverride(t *testing.T) {
	req := &domain.TabularRequest{
		Rows:          1,
		Cols:          2,
		Noise:         f64(0.2),
		NumericParams: []domain.NumericOverride{{}, {Noise: f64(0.5)}},
	}
	specs, err := newValidator().Normalize(req, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.2, specs[0].Numeric.Noise)
	assert.Equal(t, 0.5, specs[1].Numeric.Noise)
}

func TestNormalize_DefaultCategoriesAreCopied(t *testing.T) {
	defaults := []string{"A", "B"}
	req := &domain.TabularRequest{Rows: 1, Cols: 1, ColTypes: []string{"categorical"}}
	specs, err := newValidator().Normalize(req, defaults)
	require.NoError(t, err)
	defaults[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, specs[0].Categorical.Categories)
}

func TestNormalize_Errors(t *testing.T) {
	cases := []struct {
		name     string
		req      domain.TabularRequest
		defaults []string
		want     error
	}{
		{"zero rows", domain.TabularRequest{Rows: 0, Cols: 1}, nil, domain.ErrShapeMismatch},
		{"negative cols", domain.TabularRequest{Rows: 1, Cols: -1}, nil, domain.ErrShapeMismatch},
		{"types length", domain.TabularRequest{Rows: 1, Cols: 3, ColTypes: []string{"numeric"}}, nil, domain.ErrShapeMismatch},
		{"names length", domain.TabularRequest{Rows: 1, Cols: 2, ColNames: []string{"a"}}, nil, domain.ErrShapeMismatch},
		{"unknown type", domain.TabularRequest{Rows: 1, Cols: 1, ColTypes: []string{"text"}}, nil, domain.ErrUnknownColumnType},
		{"duplicate names", domain.TabularRequest{Rows: 1, Cols: 2, ColNames: []string{"a", "a"}}, nil, domain.ErrInvalidParameter},
		{"empty name", domain.TabularRequest{Rows: 1, Cols: 1, ColNames: []string{" "}}, nil, domain.ErrInvalidParameter},
		{"numeric params count", domain.TabularRequest{
			Rows: 1, Cols: 2,
			NumericParams: []domain.NumericOverride{{}},
		}, nil, domain.ErrShapeMismatch},
		{"categorical params count", domain.TabularRequest{
			Rows: 1, Cols: 1, ColTypes: []string{"categorical"},
			CategoricalParams: []domain.CategoricalOverride{{}, {}},
		}, []string{"A"}, domain.ErrShapeMismatch},
		{"negative std", domain.TabularRequest{
			Rows: 1, Cols: 1,
			NumericParams: []domain.NumericOverride{{Std: f64(-1)}},
		}, nil, domain.ErrInvalidParameter},
		{"zero std", domain.TabularRequest{
			Rows: 1, Cols: 1,
			NumericParams: []domain.NumericOverride{{Std: f64(0)}},
		}, nil, domain.ErrInvalidParameter},
		{"nan mean", domain.TabularRequest{
			Rows: 1, Cols: 1,
			NumericParams: []domain.NumericOverride{{Mean: f64(math.NaN())}},
		}, nil, domain.ErrInvalidParameter},
		{"global noise one", domain.TabularRequest{Rows: 1, Cols: 1, Noise: f64(1)}, nil, domain.ErrInvalidParameter},
		{"column noise negative", domain.TabularRequest{
			Rows: 1, Cols: 1,
			NumericParams: []domain.NumericOverride{{Noise: f64(-0.1)}},
		}, nil, domain.ErrInvalidParameter},
		{"no categories anywhere", domain.TabularRequest{Rows: 1, Cols: 1, ColTypes: []string{"categorical"}}, nil, domain.ErrMissingCategories},
		{"probabilities length", domain.TabularRequest{
			Rows: 1, Cols: 1, ColTypes: []string{"categorical"},
			CategoricalParams: []domain.CategoricalOverride{{Categories: []string{"A", "B"}, Probabilities: []float64{1}}},
		}, nil, domain.ErrInvalidDistribution},
		{"probabilities sum", domain.TabularRequest{
			Rows: 1, Cols: 1, ColTypes: []string{"categorical"},
			CategoricalParams: []domain.CategoricalOverride{{Categories: []string{"A", "B"}, Probabilities: []float64{0.5, 0.6}}},
		}, nil, domain.ErrInvalidDistribution},
		{"negative probability", domain.TabularRequest{
			Rows: 1, Cols: 1, ColTypes: []string{"categorical"},
			CategoricalParams: []domain.CategoricalOverride{{Categories: []string{"A", "B"}, Probabilities: []float64{1.5, -0.5}}},
		}, nil, domain.ErrInvalidDistribution},
		{"probabilities against defaults", domain.TabularRequest{
			Rows: 1, Cols: 1, ColTypes: []string{"categorical"},
			CategoricalParams: []domain.CategoricalOverride{{Probabilities: []float64{0.5, 0.5}}},
		}, []string{"A", "B", "C"}, domain.ErrInvalidDistribution},
	}

	v := newValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := v.Normalize(&req, tc.defaults)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestNormalize_ProbabilitiesWithinTolerance(t *testing.T) {
	req := &domain.TabularRequest{
		Rows: 1, Cols: 1, ColTypes: []string{"categorical"},
		CategoricalParams: []domain.CategoricalOverride{{
			Categories:    []string{"A", "B", "C"},
			Probabilities: []float64{0.1, 0.2, 0.7000000001},
		}},
	}
	_, err := newValidator().Normalize(req, nil)
	require.NoError(t, err)
}

func TestValidateCategories(t *testing.T) {
	require.NoError(t, ValidateCategories(nil))
	require.NoError(t, ValidateCategories([]string{"A", "B"}))
	require.ErrorIs(t, ValidateCategories([]string{"A", "A"}), domain.ErrInvalidParameter)
	require.ErrorIs(t, ValidateCategories([]string{""}), domain.ErrInvalidParameter)
}
