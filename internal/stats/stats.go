// Package stats provides the column statistics used by cleaning and reporting.
package stats

import (
	"errors"
	"math"
	"sort"

	"github.com/leapstack-labs/leapclean/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// ErrNoValues is returned when a statistic is requested over an empty sample.
var ErrNoValues = errors.New("no non-missing values")

// ErrTooFewValues is returned when a sample is too small for the statistic.
var ErrTooFewValues = errors.New("too few values")

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return math.NaN(), ErrNoValues
	}
	return stat.Mean(xs, nil), nil
}

// StdDev returns the sample standard deviation (n-1 denominator) of xs.
func StdDev(xs []float64) (float64, error) {
	if len(xs) < 2 {
		return math.NaN(), ErrTooFewValues
	}
	return stat.StdDev(xs, nil), nil
}

// Quantile returns the p-quantile of xs using linear interpolation between
// closest ranks: h = (n-1)p, q = x[floor h] + (h - floor h)(x[floor h + 1] - x[floor h]).
func Quantile(xs []float64, p float64) (float64, error) {
	if len(xs) == 0 {
		return math.NaN(), ErrNoValues
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p), nil
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Quartiles returns the 25th and 75th percentiles of xs.
func Quartiles(xs []float64) (q1, q3 float64, err error) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN(), ErrNoValues
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.25), quantileSorted(sorted, 0.75), nil
}

// Median returns the 50th percentile of xs.
func Median(xs []float64) (float64, error) {
	return Quantile(xs, 0.5)
}

// Min returns the smallest value of xs.
func Min(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return math.NaN(), ErrNoValues
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m, nil
}

// Max returns the largest value of xs.
func Max(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return math.NaN(), ErrNoValues
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m, nil
}

// Frequency is a value and how often it occurs.
type Frequency struct {
	Value any
	Count int
}

// Mode returns the most frequent non-missing value.
// Ties go to the value with the smallest text form.
func Mode(values []any) (Frequency, error) {
	freqs := Frequencies(values)
	if len(freqs) == 0 {
		return Frequency{}, ErrNoValues
	}
	return freqs[0], nil
}

// Frequencies counts the distinct non-missing values, most frequent first.
// Equal counts are ordered by text form.
func Frequencies(values []any) []Frequency {
	counts := make(map[string]*Frequency)
	for _, v := range values {
		if core.IsMissing(v) {
			continue
		}
		key := core.Stringify(v)
		if f, ok := counts[key]; ok {
			f.Count++
			continue
		}
		counts[key] = &Frequency{Value: v, Count: 1}
	}
	out := make([]Frequency, 0, len(counts))
	for _, f := range counts {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return core.Stringify(out[i].Value) < core.Stringify(out[j].Value)
	})
	return out
}

// Round rounds x to the given number of decimal places, halves away from zero.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
