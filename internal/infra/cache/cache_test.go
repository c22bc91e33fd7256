package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/tabgen/internal/domain"
)

func TestBoltCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenBolt(path)
	require.NoError(t, err)

	_, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	table := &domain.Table{
		RowCount: 2,
		Columns: []domain.Column{
			{Name: "x", Kind: domain.ColumnKindNumeric, Floats: []float64{0.1, -123.456789012345}},
			{Name: "c", Kind: domain.ColumnKindCategorical, Strings: []string{"A", "B"}},
		},
		Index: []time.Time{
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, c.Put("k1", table))

	got, ok, err := c.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, table.Columns, got.Columns)
	assert.Equal(t, 2, got.RowCount)
	require.Len(t, got.Index, 2)
	assert.True(t, table.Index[1].Equal(got.Index[1]))

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, c.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()
	_, ok, err = reopened.Get("k1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNop(t *testing.T) {
	var c TableCache = Nop{}
	require.NoError(t, c.Put("k", &domain.Table{}))
	_, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}
