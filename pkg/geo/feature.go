// Package geo decodes boundary files into features the choropleth engine can
// join against.
//
// The engine treats geometry as opaque: it only needs a region identifier and
// a stable render key per feature. Geometries are kept as [orb.Geometry] so
// they can be handed to a renderer, re-encoded as GeoJSON, or used to locate
// points inside regions.
//
// Two input formats are supported:
//   - TopoJSON topologies ([DecodeTopoJSON]), with arcs stitched into orb rings
//   - GeoJSON feature collections ([DecodeGeoJSON]), via orb/geojson
//
// [Decode] sniffs the format from the document's "type" member.
package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/errors"
)

// DefaultNameProperty is the feature property used as region identifier.
const DefaultNameProperty = "name"

// Options controls how features are extracted from a boundary document.
type Options struct {
	// NameProperty names the feature property holding the region identifier.
	// Features without it fall back to their id. Default: "name".
	NameProperty string

	// Object selects a single TopoJSON object. Empty means all objects,
	// in name order. Ignored for GeoJSON.
	Object string
}

func (o Options) nameProperty() string {
	if o.NameProperty == "" {
		return DefaultNameProperty
	}
	return o.NameProperty
}

// Feature is one drawable boundary.
type Feature struct {
	// RegionID is matched exactly against dataset region identifiers.
	RegionID string

	// RenderKey is unique within a FeatureSet and stable for identical input.
	RenderKey string

	Geometry   orb.Geometry
	Properties map[string]any
}

// FeatureSet is an ordered, immutable set of features.
type FeatureSet struct {
	Features []Feature

	// Version is a content hash of the source document and options.
	Version string
}

// Len returns the number of features.
func (fs *FeatureSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.Features)
}

// RegionIDs returns the region identifier of every feature, in order.
func (fs *FeatureSet) RegionIDs() []string {
	if fs == nil {
		return nil
	}
	ids := make([]string, len(fs.Features))
	for i, f := range fs.Features {
		ids[i] = f.RegionID
	}
	return ids
}

// FromNames builds a geometry-less FeatureSet, one feature per name.
// It is used for previews and tests where only the join matters.
func FromNames(names ...string) *FeatureSet {
	features := make([]Feature, len(names))
	for i, name := range names {
		features[i] = Feature{
			RegionID:   name,
			Properties: map[string]any{DefaultNameProperty: name},
		}
	}
	data, _ := json.Marshal(names)
	return newFeatureSet(features, data, Options{})
}

// Decode decodes a TopoJSON topology or a GeoJSON feature collection.
func Decode(data []byte, opts Options) (*FeatureSet, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTopology, err, "decode boundary document")
	}
	switch head.Type {
	case "Topology":
		return DecodeTopoJSON(data, opts)
	case "FeatureCollection":
		return DecodeGeoJSON(data, opts)
	default:
		return nil, errors.New(errors.ErrCodeInvalidTopology, "unsupported boundary document type %q (want Topology or FeatureCollection)", head.Type)
	}
}

// newFeatureSet assigns render keys and the content version.
func newFeatureSet(features []Feature, source []byte, opts Options) *FeatureSet {
	for i := range features {
		features[i].RenderKey = "geo-" + strconv.Itoa(i)
	}
	version := cache.Hash([]byte(fmt.Sprintf("%s\x00%s\x00%s", source, opts.nameProperty(), opts.Object)))
	return &FeatureSet{Features: features, Version: version[:16]}
}

// regionID picks the region identifier from properties, falling back to id.
func regionID(props map[string]any, id any, nameProperty string) string {
	if v, ok := props[nameProperty]; ok && v != nil {
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return scalarString(id)
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
