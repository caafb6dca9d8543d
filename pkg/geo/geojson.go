package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/choropleth/pkg/errors"
)

// DecodeGeoJSON decodes a GeoJSON FeatureCollection.
func DecodeGeoJSON(data []byte, opts Options) (*FeatureSet, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTopology, err, "decode GeoJSON feature collection")
	}

	name := opts.nameProperty()
	features := make([]Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		props := map[string]any(f.Properties)
		if props == nil {
			props = map[string]any{}
		}
		features = append(features, Feature{
			RegionID:   regionID(props, f.ID, name),
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return newFeatureSet(features, data, opts), nil
}

// EncodeGeometry converts a feature geometry into its GeoJSON form.
// A nil geometry yields nil.
func EncodeGeometry(g orb.Geometry) *geojson.Geometry {
	if g == nil {
		return nil
	}
	return geojson.NewGeometry(g)
}
