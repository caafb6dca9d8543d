// Package scale maps aggregated region values to discrete colors.
//
// [Quantile] splits the observed values into K classes of (as far as ties
// allow) equal size. Each class gets one palette color; the lowest class
// gets the lightest color.
//
// # Threshold definition
//
// For a sorted domain x[0..n-1] and K classes there are K-1 thresholds,
//
//	threshold_i = x interpolated linearly at index (n-1)·i/K   for i = 1..K-1
//
// The index is computed as ((n-1)·i)/K so that it is exact whenever it is
// a whole number. A value v belongs to
// class b = number of thresholds ≤ v, so a value exactly on a threshold goes
// to the higher class.
package scale

import (
	"math"
	"sort"

	"github.com/matzehuels/choropleth/pkg/palette"
)

// ClassifyFunc maps a value to a color.
type ClassifyFunc func(float64) palette.Color

// Classify calls f(v).
func (f ClassifyFunc) Classify(v float64) palette.Color { return f(v) }

// Quantile is a quantile color scale. It is immutable once built.
type Quantile struct {
	domain     []float64
	thresholds []float64
	colors     []palette.Color
	fallback   palette.Color
}

// NewQuantile builds a quantile scale over values with one class per color.
//
// Non-finite values are ignored. When no finite value remains the scale is
// empty and classifies everything as fallback. Duplicates are kept: they
// weigh the quantiles like any other observation.
func NewQuantile(values []float64, colors []palette.Color, fallback palette.Color) *Quantile {
	domain := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		domain = append(domain, v)
	}
	sort.Float64s(domain)

	q := &Quantile{
		domain:   domain,
		colors:   append([]palette.Color(nil), colors...),
		fallback: fallback,
	}
	k := len(colors)
	if len(domain) == 0 || k == 0 {
		return q
	}
	q.thresholds = make([]float64, k-1)
	for i := 1; i < k; i++ {
		q.thresholds[i-1] = quantile(domain, i, k)
	}
	return q
}

// quantile returns the i/k-quantile of sorted, interpolating linearly at
// index (n-1)·i/k.
func quantile(sorted []float64, i, k int) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64((n-1)*i) / float64(k)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Empty reports whether the scale has no domain (or no colors).
func (q *Quantile) Empty() bool {
	return len(q.domain) == 0 || len(q.colors) == 0
}

// Degenerate reports whether the domain has fewer distinct values than
// classes, so some classes can never be assigned.
func (q *Quantile) Degenerate() bool {
	if q.Empty() {
		return false
	}
	distinct := 1
	for i := 1; i < len(q.domain); i++ {
		if q.domain[i] != q.domain[i-1] {
			distinct++
		}
	}
	return distinct < len(q.colors)
}

// Classes returns the number of classes K.
func (q *Quantile) Classes() int { return len(q.colors) }

// Thresholds returns a copy of the K-1 class boundaries, ascending.
func (q *Quantile) Thresholds() []float64 {
	return append([]float64(nil), q.thresholds...)
}

// Colors returns a copy of the class colors, lightest first.
func (q *Quantile) Colors() []palette.Color {
	return append([]palette.Color(nil), q.colors...)
}

// Fallback returns the color used when the scale is empty.
func (q *Quantile) Fallback() palette.Color { return q.fallback }

// Domain returns a sorted copy of the finite input values.
func (q *Quantile) Domain() []float64 {
	return append([]float64(nil), q.domain...)
}

// Bucket returns the class index of v in [0, K-1], or -1 for an empty
// scale or a non-finite v. Values outside the domain clamp to the end classes.
func (q *Quantile) Bucket(v float64) int {
	if q.Empty() || math.IsNaN(v) || math.IsInf(v, 0) {
		return -1
	}
	return sort.Search(len(q.thresholds), func(i int) bool { return q.thresholds[i] > v })
}

// Classify returns the color of v's class, or the fallback for an empty scale.
func (q *Quantile) Classify(v float64) palette.Color {
	b := q.Bucket(v)
	if b < 0 {
		return q.fallback
	}
	return q.colors[b]
}

// Func returns Classify as a ClassifyFunc.
func (q *Quantile) Func() ClassifyFunc { return q.Classify }
