package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/matzehuels/choropleth/pkg/errors"
)

// Record is one validated measurement.
//
// Region-level records leave PointID empty. Point-level records carry a
// PointID and usually Coordinates; several points may belong to one region.
type Record struct {
	RegionID    string     `json:"region"`
	PointID     string     `json:"point,omitempty"`
	Value       float64    `json:"value"`
	Coordinates *orb.Point `json:"coordinates,omitempty"`
}

// IsPoint reports whether r is a point-level measurement.
func (r Record) IsPoint() bool { return r.PointID != "" }

// RawRecord is a measurement as read from a dataset file, before validation.
//
// Value is kept untyped so that each decoder (JSON, YAML, TOML) can hand over
// its native number representation. State is accepted as an alias of Region.
type RawRecord struct {
	Region      string    `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
	State       string    `json:"state,omitempty" yaml:"state,omitempty" toml:"state,omitempty"`
	Point       string    `json:"point,omitempty" yaml:"point,omitempty" toml:"point,omitempty"`
	Value       any       `json:"value" yaml:"value" toml:"value"`
	Coordinates []float64 `json:"coordinates,omitempty" yaml:"coordinates,omitempty" toml:"coordinates,omitempty"`
}

// RegionName returns Region, or State when Region is empty.
func (r RawRecord) RegionName() string {
	if r.Region != "" {
		return r.Region
	}
	return r.State
}

// Diagnostic describes a record that was excluded from the dataset.
type Diagnostic struct {
	Index   int         `json:"index"`
	Region  string      `json:"region,omitempty"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// String formats the diagnostic for log output.
func (d Diagnostic) String() string {
	if d.Region != "" {
		return fmt.Sprintf("record %d (%s): %s", d.Index, d.Region, d.Message)
	}
	return fmt.Sprintf("record %d: %s", d.Index, d.Message)
}

// numeric converts a decoded value to a finite float64.
// Numeric strings are rejected: a quoted number in a dataset is a data error.
func numeric(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", n.String())
		}
		f = parsed
	case string:
		return 0, fmt.Errorf("value %q is a string, not a number", n)
	case bool:
		return 0, fmt.Errorf("value %t is not a number", n)
	default:
		return 0, fmt.Errorf("value of type %T is not a number", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not finite", f)
	}
	return f, nil
}

// coordinates converts a [lon, lat] pair into a point.
func coordinates(c []float64) (*orb.Point, error) {
	if len(c) == 0 {
		return nil, nil
	}
	if len(c) != 2 {
		return nil, fmt.Errorf("coordinates must be [lon, lat], got %d numbers", len(c))
	}
	lon, lat := c[0], c[1]
	if math.IsNaN(lon) || math.IsNaN(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("coordinates [%g, %g] out of range", lon, lat)
	}
	p := orb.Point{lon, lat}
	return &p, nil
}

// normalizeID trims surrounding whitespace from point identifiers.
// Region identifiers are never normalized; they must match feature names exactly.
func normalizeID(s string) string {
	return strings.TrimSpace(s)
}
