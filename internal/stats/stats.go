// Package stats summarizes generated tables: per-column descriptions,
// category frequencies, grouped aggregates and time resampling.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mmrzaf/tabgen/internal/domain"
)

var (
	ErrNoIndex       = errors.New("table has no index")
	ErrUnknownColumn = errors.New("unknown column")
	ErrColumnKind    = errors.New("wrong column kind")
)

// Summary describes one column. Exactly one of Numeric or Categorical is
// set, matching Kind.
type Summary struct {
	Column      string              `json:"column"`
	Kind        domain.ColumnKind   `json:"kind"`
	Count       int                 `json:"count"`
	Numeric     *NumericSummary     `json:"numeric,omitempty"`
	Categorical *CategoricalSummary `json:"categorical,omitempty"`
}

type NumericSummary struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

type CategoricalSummary struct {
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

type ValueCount struct {
	Value    string  `json:"value"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
}

// Group is the aggregate of one numeric column within one category.
type Group struct {
	Key    string  `json:"key"`
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

type Bucket struct {
	Column string    `json:"column"`
	Period time.Time `json:"period"`
	Count  int       `json:"count"`
	Mean   float64   `json:"mean"`
}

func Describe(t *domain.Table) []Summary {
	out := make([]Summary, 0, len(t.Columns))
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Kind == domain.ColumnKindCategorical {
			out = append(out, describeCategorical(c))
		} else {
			out = append(out, describeNumeric(c))
		}
	}
	return out
}

func describeNumeric(c *domain.Column) Summary {
	s := Summary{Column: c.Name, Kind: c.Kind, Count: len(c.Floats), Numeric: &NumericSummary{}}
	if len(c.Floats) == 0 {
		return s
	}
	sorted := append([]float64(nil), c.Floats...)
	sort.Float64s(sorted)

	n := s.Numeric
	n.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		n.Std = stat.StdDev(sorted, nil)
	}
	n.Min = floats.Min(sorted)
	n.Max = floats.Max(sorted)
	n.Q25 = quantile(0.25, sorted)
	n.Median = quantile(0.5, sorted)
	n.Q75 = quantile(0.75, sorted)
	return s
}

// quantile interpolates linearly between closest ranks over sorted data.
func quantile(p float64, sorted []float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

func describeCategorical(c *domain.Column) Summary {
	s := Summary{Column: c.Name, Kind: c.Kind, Count: len(c.Strings), Categorical: &CategoricalSummary{}}
	counts := ValueCounts(c)
	s.Categorical.Unique = len(counts)
	if len(counts) > 0 {
		s.Categorical.Top = counts[0].Value
		s.Categorical.Freq = counts[0].Count
	}
	return s
}

// ValueCounts tallies a column's values, most frequent first and ties in
// lexical order. Numeric columns are tallied by their formatted value.
func ValueCounts(c *domain.Column) []ValueCount {
	n := c.Len()
	tally := make(map[string]int)
	for i := 0; i < n; i++ {
		tally[c.Format(i)]++
	}
	out := make([]ValueCount, 0, len(tally))
	for v, k := range tally {
		out = append(out, ValueCount{Value: v, Count: k, Fraction: float64(k) / float64(n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// GroupAgg computes mean and standard deviation of each numeric column in
// cols for every category of the categorical column by. Groups come out
// ordered by key, then by the order of cols.
func GroupAgg(t *domain.Table, by string, cols []string) ([]Group, error) {
	key, ok := t.Column(by)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, by)
	}
	if key.Kind != domain.ColumnKindCategorical {
		return nil, fmt.Errorf("%w: group key %s must be categorical", ErrColumnKind, by)
	}

	values := make([]*domain.Column, len(cols))
	for i, name := range cols {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		if c.Kind != domain.ColumnKindNumeric {
			return nil, fmt.Errorf("%w: %s must be numeric", ErrColumnKind, name)
		}
		values[i] = c
	}

	rowsByKey := make(map[string][]int)
	for i, k := range key.Strings {
		rowsByKey[k] = append(rowsByKey[k], i)
	}
	keys := make([]string, 0, len(rowsByKey))
	for k := range rowsByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Group
	for _, k := range keys {
		rows := rowsByKey[k]
		for _, c := range values {
			xs := make([]float64, len(rows))
			for j, r := range rows {
				xs[j] = c.Floats[r]
			}
			g := Group{Key: k, Column: c.Name, Count: len(xs)}
			g.Mean, g.Std = meanStd(xs)
			out = append(out, g)
		}
	}
	return out, nil
}

// Resample buckets numeric columns by calendar period of the row index
// and averages each bucket. No columns means every numeric column. Buckets
// come out grouped by column, in the order asked for, then by period. The
// only period is "month".
func Resample(t *domain.Table, columns []string, period string) ([]Bucket, error) {
	if !t.HasIndex() {
		return nil, ErrNoIndex
	}
	if period != "month" {
		return nil, fmt.Errorf("unsupported resample period %q", period)
	}

	var cols []*domain.Column
	if len(columns) == 0 {
		for i := range t.Columns {
			if t.Columns[i].Kind == domain.ColumnKindNumeric {
				cols = append(cols, &t.Columns[i])
			}
		}
	}
	for _, name := range columns {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		if c.Kind != domain.ColumnKindNumeric {
			return nil, fmt.Errorf("%w: %s must be numeric", ErrColumnKind, name)
		}
		cols = append(cols, c)
	}

	var out []Bucket
	for _, c := range cols {
		out = append(out, resampleColumn(t.Index, c)...)
	}
	return out, nil
}

func resampleColumn(index []time.Time, c *domain.Column) []Bucket {
	var out []Bucket
	var cur []float64
	flush := func(p time.Time) {
		if len(cur) == 0 {
			return
		}
		out = append(out, Bucket{Column: c.Name, Period: p, Count: len(cur), Mean: stat.Mean(cur, nil)})
		cur = cur[:0]
	}

	var curPeriod time.Time
	for i, ts := range index {
		p := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, ts.Location())
		if i == 0 {
			curPeriod = p
		}
		if !p.Equal(curPeriod) {
			flush(curPeriod)
			curPeriod = p
		}
		cur = append(cur, c.Floats[i])
	}
	flush(curPeriod)
	return out
}

// Correlation is the Pearson coefficient of two equally long samples. It
// is NaN when either sample is constant.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) < 2 {
		return math.NaN(), nil
	}
	return stat.Correlation(a, b, nil), nil
}

func meanStd(xs []float64) (float64, float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	default:
		return stat.MeanStdDev(xs, nil)
	}
}
