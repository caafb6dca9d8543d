package scale

import "github.com/matzehuels/choropleth/pkg/palette"

// LegendEntry describes one class of a quantile scale.
//
// A class covers [Lower, Upper); the last class also includes Upper.
// Count is the number of domain values assigned to the class.
type LegendEntry struct {
	Bucket int           `json:"bucket"`
	Color  palette.Color `json:"color"`
	Lower  float64       `json:"lower"`
	Upper  float64       `json:"upper"`
	Count  int           `json:"count"`
}

// Legend returns one entry per class, lowest first. An empty scale has no legend.
func (q *Quantile) Legend() []LegendEntry {
	if q.Empty() {
		return nil
	}
	k := len(q.colors)
	lo, hi := q.domain[0], q.domain[len(q.domain)-1]

	entries := make([]LegendEntry, k)
	for b := range entries {
		lower, upper := lo, hi
		if b > 0 {
			lower = q.thresholds[b-1]
		}
		if b < k-1 {
			upper = q.thresholds[b]
		}
		entries[b] = LegendEntry{Bucket: b, Color: q.colors[b], Lower: lower, Upper: upper}
	}
	for _, v := range q.domain {
		entries[q.Bucket(v)].Count++
	}
	return entries
}
