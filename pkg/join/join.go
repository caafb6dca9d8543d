// Package join produces one render descriptor per boundary feature.
//
// The join is exact and case-sensitive: a feature matches an aggregate only
// when their region identifiers are byte-for-byte equal. Features without a
// match are kept and drawn in the fallback color, so the output always has
// the same length and order as the input features. An aggregate whose value
// is NaN or infinite counts as no match.
package join

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/matzehuels/choropleth/pkg/aggregate"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/palette"
)

// Classifier maps an aggregated value to a fill color.
type Classifier interface {
	Classify(v float64) palette.Color
}

// Bucketer is implemented by classifiers that expose class indices.
type Bucketer interface {
	Bucket(v float64) int
}

// StrokeStyle describes region borders.
type StrokeStyle struct {
	Color palette.Color `json:"color"`
	Width float64       `json:"width"`
}

// Style holds the presentation constants shared by all descriptors.
type Style struct {
	Fallback palette.Color `json:"fallback"`
	Stroke   StrokeStyle   `json:"stroke"`
	Hover    palette.Color `json:"hover"`
}

// DefaultStyle returns the default fallback, stroke and hover colors.
func DefaultStyle() Style {
	return Style{
		Fallback: palette.DefaultFallback,
		Stroke:   StrokeStyle{Color: palette.DefaultStroke, Width: palette.DefaultStrokeWidth},
		Hover:    palette.DefaultHover,
	}
}

// RenderDescriptor tells a renderer how to draw one feature.
type RenderDescriptor struct {
	RenderKey string
	RegionID  string
	Geometry  orb.Geometry
	Fill      palette.Color
	Hover     palette.Color
	Stroke    StrokeStyle

	// HasData is false for features without a finite aggregate; Fill is
	// then the fallback color and Bucket is -1.
	HasData bool
	Bucket  int
	Value   float64
}

// Join builds a descriptor for every feature, in feature order.
func Join(features []geo.Feature, aggs []aggregate.Value, classify Classifier, style Style) []RenderDescriptor {
	values := aggregate.Index(aggs)
	bucketer, _ := classify.(Bucketer)

	out := make([]RenderDescriptor, len(features))
	for i, f := range features {
		d := RenderDescriptor{
			RenderKey: f.RenderKey,
			RegionID:  f.RegionID,
			Geometry:  f.Geometry,
			Fill:      style.Fallback,
			Hover:     style.Hover,
			Stroke:    style.Stroke,
			Bucket:    -1,
		}
		if v, ok := values[f.RegionID]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			d.HasData = true
			d.Value = v
			d.Fill = classify.Classify(v)
			if bucketer != nil {
				d.Bucket = bucketer.Bucket(v)
			}
		}
		out[i] = d
	}
	return out
}

// Unmatched returns the aggregate regions that no feature carries, in
// aggregate order. A non-empty result usually means the dataset and the
// boundaries spell region names differently.
func Unmatched(features []geo.Feature, aggs []aggregate.Value) []string {
	known := make(map[string]bool, len(features))
	for _, f := range features {
		known[f.RegionID] = true
	}
	var out []string
	for _, a := range aggs {
		if !known[a.RegionID] {
			out = append(out, a.RegionID)
		}
	}
	return out
}

// Missing returns the features that received the fallback color.
func Missing(descriptors []RenderDescriptor) []string {
	var out []string
	for _, d := range descriptors {
		if !d.HasData {
			out = append(out, d.RegionID)
		}
	}
	return out
}
