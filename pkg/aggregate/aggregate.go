// Package aggregate reduces point-level measurements to one value per region.
//
// All functions group records by exact region identifier and return results
// in order of each region's first appearance in the input. Regions without
// records never appear in the output: absence of data is represented by
// absence, not by a zero.
//
// Records are expected to come from dataset.New, which drops non-finite
// values. Other callers must filter them first: a NaN member makes the
// region's mean NaN, and the join then treats the region as having no data.
package aggregate

import (
	"github.com/montanaflynn/stats"

	"github.com/matzehuels/choropleth/pkg/dataset"
)

// Value is the aggregated value of one region.
type Value struct {
	RegionID string  `json:"region"`
	Value    float64 `json:"value"`
}

// Summary holds the per-region statistics shown in tooltips.
type Summary struct {
	RegionID string  `json:"region"`
	Mean     float64 `json:"mean"`
	Sum      float64 `json:"sum"`
	Count    int     `json:"count"`
}

// group collects member values per region in first-appearance order.
func group(records []dataset.Record) (order []string, members map[string]stats.Float64Data) {
	members = make(map[string]stats.Float64Data)
	for _, r := range records {
		if _, ok := members[r.RegionID]; !ok {
			order = append(order, r.RegionID)
		}
		members[r.RegionID] = append(members[r.RegionID], r.Value)
	}
	return order, members
}

// Mean returns the arithmetic mean of member values per region.
// This is the canonical region value used for classification.
func Mean(records []dataset.Record) []Value {
	order, members := group(records)
	out := make([]Value, 0, len(order))
	for _, id := range order {
		m, _ := stats.Mean(members[id])
		out = append(out, Value{RegionID: id, Value: m})
	}
	return out
}

// Sum returns the total of member values per region.
func Sum(records []dataset.Record) []Value {
	order, members := group(records)
	out := make([]Value, 0, len(order))
	for _, id := range order {
		s, _ := stats.Sum(members[id])
		out = append(out, Value{RegionID: id, Value: s})
	}
	return out
}

// Count returns the number of records per region.
func Count(records []dataset.Record) []Value {
	order, members := group(records)
	out := make([]Value, 0, len(order))
	for _, id := range order {
		out = append(out, Value{RegionID: id, Value: float64(members[id].Len())})
	}
	return out
}

// Summarize returns mean, sum and count per region in one pass over the groups.
func Summarize(records []dataset.Record) []Summary {
	order, members := group(records)
	out := make([]Summary, 0, len(order))
	for _, id := range order {
		data := members[id]
		m, _ := stats.Mean(data)
		s, _ := stats.Sum(data)
		out = append(out, Summary{RegionID: id, Mean: m, Sum: s, Count: data.Len()})
	}
	return out
}

// Values extracts the aggregated values, in order. This is the classifier domain.
func Values(aggs []Value) []float64 {
	out := make([]float64, len(aggs))
	for i, a := range aggs {
		out[i] = a.Value
	}
	return out
}

// Index maps region identifiers to their aggregated value.
func Index(aggs []Value) map[string]float64 {
	m := make(map[string]float64, len(aggs))
	for _, a := range aggs {
		m[a.RegionID] = a.Value
	}
	return m
}

// Points indexes point-level records by point identifier.
// Records without a point identifier are region-level and skipped.
// A repeated point identifier keeps its last record.
func Points(records []dataset.Record) map[string]dataset.Record {
	m := make(map[string]dataset.Record)
	for _, r := range records {
		if r.IsPoint() {
			m[r.PointID] = r
		}
	}
	return m
}
