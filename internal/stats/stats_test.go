package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		p    float64
		want float64
	}{
		{"q1 of five", []float64{1, 2, 3, 4, 1000}, 0.25, 2},
		{"q3 of five", []float64{1000, 4, 3, 2, 1}, 0.75, 4},
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"interpolated", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"single", []float64{7}, 0.9, 7},
		{"max", []float64{1, 5, 3}, 1, 5},
		{"min", []float64{1, 5, 3}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quantile(tt.xs, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := Quantile(nil, 0.5)
	assert.ErrorIs(t, err, ErrNoValues)
}

func TestQuartilesDoNotReorderInput(t *testing.T) {
	xs := []float64{5, 1, 3}
	q1, q3, err := Quartiles(xs)
	require.NoError(t, err)
	assert.InDelta(t, 2, q1, 1e-9)
	assert.InDelta(t, 4, q3, 1e-9)
	assert.Equal(t, []float64{5, 1, 3}, xs)
}

func TestMeanStdDev(t *testing.T) {
	m, err := Mean([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 5, m, 1e-9)

	sd, err := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(32.0/7.0), sd, 1e-9)

	_, err = Mean(nil)
	assert.ErrorIs(t, err, ErrNoValues)
	_, err = StdDev([]float64{1})
	assert.ErrorIs(t, err, ErrTooFewValues)
}

func TestMode(t *testing.T) {
	f, err := Mode([]any{"b", "a", "b", nil, "a", "c"})
	require.NoError(t, err)
	assert.Equal(t, "a", f.Value)
	assert.Equal(t, 2, f.Count)

	f, err = Mode([]any{"x", "y", "y"})
	require.NoError(t, err)
	assert.Equal(t, "y", f.Value)

	_, err = Mode([]any{nil, math.NaN()})
	assert.ErrorIs(t, err, ErrNoValues)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 66.67, Round(200.0/3.0, 2))
	assert.Equal(t, 80.0, Round(80.04, 1))
}
