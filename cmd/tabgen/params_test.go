package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumericParam(t *testing.T) {
	o, err := parseNumericParam("100:10:0.1")
	require.NoError(t, err)
	require.NotNil(t, o.Mean)
	require.NotNil(t, o.Std)
	require.NotNil(t, o.Noise)
	assert.Equal(t, 100.0, *o.Mean)
	assert.Equal(t, 10.0, *o.Std)
	assert.Equal(t, 0.1, *o.Noise)

	o, err = parseNumericParam(":5")
	require.NoError(t, err)
	assert.Nil(t, o.Mean)
	require.NotNil(t, o.Std)
	assert.Equal(t, 5.0, *o.Std)
	assert.Nil(t, o.Noise)

	o, err = parseNumericParam("-")
	require.NoError(t, err)
	assert.Nil(t, o.Mean)

	_, err = parseNumericParam("1:2:3:4")
	assert.Error(t, err)
	_, err = parseNumericParam("abc")
	assert.Error(t, err)
}

func TestParseCategoricalParam(t *testing.T) {
	o, err := parseCategoricalParam("Low|Medium|High=0.2|0.5|0.3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Low", "Medium", "High"}, o.Categories)
	assert.Equal(t, []float64{0.2, 0.5, 0.3}, o.Probabilities)

	o, err = parseCategoricalParam("A|B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, o.Categories)
	assert.Nil(t, o.Probabilities)

	o, err = parseCategoricalParam("-")
	require.NoError(t, err)
	assert.Empty(t, o.Categories)

	_, err = parseCategoricalParam("A|B=x|y")
	assert.Error(t, err)
}
