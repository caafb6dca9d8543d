package pipeline

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/choropleth/pkg/aggregate"
	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/join"
	"github.com/matzehuels/choropleth/pkg/palette"
	"github.com/matzehuels/choropleth/pkg/scale"
)

// DocumentVersion is bumped whenever the Document layout changes.
const DocumentVersion = 1

// Document is the renderer-facing JSON export of a Result.
type Document struct {
	Version        int                  `json:"version"`
	DatasetVersion string               `json:"dataset_version"`
	FeatureVersion string               `json:"feature_version"`
	Options        Options              `json:"options"`
	Style          join.Style           `json:"style"`
	Features       []DocumentFeature    `json:"features"`
	Points         []DocumentPoint      `json:"points,omitempty"`
	Legend         []scale.LegendEntry  `json:"legend"`
	Aggregates     []aggregate.Summary  `json:"aggregates"`
	Unmatched      []string             `json:"unmatched,omitempty"`
	Diagnostics    []dataset.Diagnostic `json:"diagnostics,omitempty"`
}

// DocumentFeature is one region polygon with its fill and tooltip text.
type DocumentFeature struct {
	RenderKey string            `json:"key"`
	RegionID  string            `json:"region"`
	Fill      palette.Color     `json:"fill"`
	HasData   bool              `json:"has_data"`
	Bucket    int               `json:"bucket"`
	Value     *float64          `json:"value,omitempty"`
	Tooltip   string            `json:"tooltip"`
	Geometry  *geojson.Geometry `json:"geometry,omitempty"`
}

// DocumentPoint is one point marker.
type DocumentPoint struct {
	ID          string      `json:"id"`
	RegionID    string      `json:"region,omitempty"`
	Value       float64     `json:"value"`
	Coordinates *[2]float64 `json:"coordinates,omitempty"`
	Tooltip     string      `json:"tooltip"`
}

// BuildDocument converts a Result into its export form.
func BuildDocument(res *Result) Document {
	doc := Document{
		Version:        DocumentVersion,
		DatasetVersion: res.DatasetVersion,
		FeatureVersion: res.FeatureVersion,
		Options:        res.Options,
		Style:          res.Options.Style(),
		Features:       make([]DocumentFeature, len(res.Descriptors)),
		Legend:         res.Scale.Legend(),
		Aggregates:     res.Summaries,
		Unmatched:      res.Unmatched,
		Diagnostics:    res.Diagnostics,
	}
	if doc.Legend == nil {
		doc.Legend = []scale.LegendEntry{}
	}
	if doc.Aggregates == nil {
		doc.Aggregates = []aggregate.Summary{}
	}

	for i, d := range res.Descriptors {
		f := DocumentFeature{
			RenderKey: d.RenderKey,
			RegionID:  d.RegionID,
			Fill:      d.Fill,
			HasData:   d.HasData,
			Bucket:    d.Bucket,
			Tooltip:   res.Labels.RegionText(d.RegionID),
			Geometry:  geo.EncodeGeometry(d.Geometry),
		}
		if d.HasData {
			v := d.Value
			f.Value = &v
		}
		doc.Features[i] = f
	}

	for _, p := range res.Points {
		dp := DocumentPoint{
			ID:       p.PointID,
			RegionID: p.RegionID,
			Value:    p.Value,
			Tooltip:  res.Labels.PointText(p.PointID),
		}
		if p.Coordinates != nil {
			dp.Coordinates = &[2]float64{p.Coordinates.Lon(), p.Coordinates.Lat()}
		}
		doc.Points = append(doc.Points, dp)
	}
	return doc
}

// RenderDocument serializes a Result as an indented JSON Document.
func RenderDocument(res *Result) ([]byte, error) {
	return json.MarshalIndent(BuildDocument(res), "", "  ")
}
