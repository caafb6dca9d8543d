// Package dataset holds the measurement records that drive a choropleth.
//
// A [Dataset] is built once from raw records (see [New]) and is immutable
// afterwards. Replacing the data means building a new Dataset, which gets a
// new [Dataset.Version]; derived results are keyed by that version.
//
// Malformed records never abort loading. They are excluded and reported as
// [Diagnostic] values in [Dataset.Diagnostics].
package dataset

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/observability"
)

// Locator assigns a region to a coordinate. It is used for point records
// that carry coordinates but no region name.
type Locator interface {
	Locate(p orb.Point) (regionID string, ok bool)
}

// Options configures how raw records are turned into a Dataset.
type Options struct {
	// Locator, when set, fills in missing regions from record coordinates.
	Locator Locator

	// Logger receives one warning per excluded record. Nil discards.
	Logger *log.Logger
}

// Dataset is an immutable, validated set of measurement records.
type Dataset struct {
	Records     []Record     `json:"records"`
	Version     string       `json:"version"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// New validates raw records and builds a Dataset.
func New(ctx context.Context, raws []RawRecord, opts Options) *Dataset {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ds := &Dataset{Records: make([]Record, 0, len(raws))}
	drop := func(i int, region string, code errors.Code, msg string) {
		d := Diagnostic{Index: i, Region: region, Code: code, Message: msg}
		ds.Diagnostics = append(ds.Diagnostics, d)
		logger.Warn("dropped record", "index", i, "region", region, "reason", msg)
		observability.Pipeline().OnRecordDropped(ctx, string(code))
	}

	for i, raw := range raws {
		region := raw.RegionName()

		coords, err := coordinates(raw.Coordinates)
		if err != nil {
			drop(i, region, errors.ErrCodeInvalidRecord, err.Error())
			continue
		}

		if region == "" && coords != nil && opts.Locator != nil {
			if located, ok := opts.Locator.Locate(*coords); ok {
				logger.Debug("located point", "index", i, "point", raw.Point, "region", located)
				region = located
			}
		}

		if err := errors.ValidateRegionID(region); err != nil {
			drop(i, region, errors.GetCode(err), errors.UserMessage(err))
			continue
		}

		value, err := numeric(raw.Value)
		if err != nil {
			drop(i, region, errors.ErrCodeInvalidRecord, err.Error())
			continue
		}

		ds.Records = append(ds.Records, Record{
			RegionID:    region,
			PointID:     normalizeID(raw.Point),
			Value:       value,
			Coordinates: coords,
		})
	}

	ds.Version = version(ds.Records)
	return ds
}

// FromRecords builds a Dataset from already typed records.
// The records go through the same validation as file input.
func FromRecords(records []Record) *Dataset {
	raws := make([]RawRecord, len(records))
	for i, r := range records {
		raws[i] = RawRecord{Region: r.RegionID, Point: r.PointID, Value: r.Value}
		if r.Coordinates != nil {
			raws[i].Coordinates = []float64{r.Coordinates.Lon(), r.Coordinates.Lat()}
		}
	}
	return New(context.Background(), raws, Options{})
}

// Len returns the number of accepted records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Regions returns the distinct region identifiers in order of first appearance.
func (d *Dataset) Regions() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		if !seen[r.RegionID] {
			seen[r.RegionID] = true
			out = append(out, r.RegionID)
		}
	}
	return out
}

// version is a content hash: identical records yield identical versions
// across processes.
func version(records []Record) string {
	data, _ := json.Marshal(records)
	return cache.Hash(data)[:16]
}
