package geo

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/choropleth/pkg/errors"
)

// Two unit squares sharing the edge x=71, quantized with scale 0.5.
const testTopology = `{
  "type": "Topology",
  "transform": {"scale": [0.5, 0.5], "translate": [70, 10]},
  "objects": {
    "states": {
      "type": "GeometryCollection",
      "geometries": [
        {"type": "Polygon", "arcs": [[0, 1]], "properties": {"name": "Alpha"}},
        {"type": "Polygon", "arcs": [[2, -1]], "id": "beta-id", "properties": {}}
      ]
    },
    "cities": {
      "type": "GeometryCollection",
      "geometries": [
        {"type": "Point", "coordinates": [1, 1], "properties": {"name": "Capital"}}
      ]
    }
  },
  "arcs": [
    [[2, 0], [0, 2]],
    [[2, 2], [-2, 0], [0, -2], [2, 0]],
    [[2, 0], [2, 0], [0, 2], [-2, 0]]
  ]
}`

const testFeatureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Bihar", "NAME_1": "BR"},
     "geometry": {"type": "Polygon", "coordinates": [[[84,25],[86,25],[86,27],[84,27],[84,25]]]}},
    {"type": "Feature", "id": 7, "properties": {"code": 7},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},
    {"type": "Feature", "properties": {"name": "Nowhere"}, "geometry": null}
  ]
}`

func TestDecodeTopoJSON(t *testing.T) {
	fs, err := DecodeTopoJSON([]byte(testTopology), Options{})
	if err != nil {
		t.Fatalf("DecodeTopoJSON: %v", err)
	}

	want := []struct{ id, key string }{
		{"Capital", "geo-0"},
		{"Alpha", "geo-1"},
		{"beta-id", "geo-2"},
	}
	if fs.Len() != len(want) {
		t.Fatalf("Len = %d, want %d (%v)", fs.Len(), len(want), fs.RegionIDs())
	}
	for i, w := range want {
		f := fs.Features[i]
		if f.RegionID != w.id || f.RenderKey != w.key {
			t.Errorf("feature %d = (%q, %q), want (%q, %q)", i, f.RegionID, f.RenderKey, w.id, w.key)
		}
	}

	alpha, ok := fs.Features[1].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("Alpha geometry = %T, want orb.Polygon", fs.Features[1].Geometry)
	}
	wantRing := orb.Ring{{71, 10}, {71, 11}, {70, 11}, {70, 10}, {71, 10}}
	if !alpha[0].Equal(wantRing) {
		t.Errorf("Alpha ring = %v, want %v", alpha[0], wantRing)
	}

	beta := fs.Features[2].Geometry.(orb.Polygon)
	wantBeta := orb.Ring{{71, 10}, {72, 10}, {72, 11}, {71, 11}, {71, 10}}
	if !beta[0].Equal(wantBeta) {
		t.Errorf("beta ring = %v, want %v", beta[0], wantBeta)
	}

	if p, ok := fs.Features[0].Geometry.(orb.Point); !ok || !p.Equal(orb.Point{70.5, 10.5}) {
		t.Errorf("Capital = %v, want point (70.5, 10.5)", fs.Features[0].Geometry)
	}
}

func TestDecodeTopoJSONObject(t *testing.T) {
	fs, err := DecodeTopoJSON([]byte(testTopology), Options{Object: "states"})
	if err != nil {
		t.Fatal(err)
	}
	ids := fs.RegionIDs()
	if len(ids) != 2 || ids[0] != "Alpha" || ids[1] != "beta-id" {
		t.Errorf("RegionIDs = %v, want [Alpha beta-id]", ids)
	}
	if fs.Features[0].RenderKey != "geo-0" {
		t.Errorf("RenderKey = %q, want geo-0", fs.Features[0].RenderKey)
	}

	_, err = DecodeTopoJSON([]byte(testTopology), Options{Object: "india"})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown object error = %v, want %v", err, errors.ErrCodeNotFound)
	}
}

func TestDecodeTopoJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `{"type": "Topology",`},
		{"wrong type", `{"type": "FeatureCollection", "objects": {}, "arcs": []}`},
		{"arc out of range", `{"type": "Topology", "objects": {"o": {"type": "Polygon", "arcs": [[5]]}}, "arcs": [[[0,0],[1,1]]]}`},
		{"unsupported geometry", `{"type": "Topology", "objects": {"o": {"type": "Circle"}}, "arcs": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTopoJSON([]byte(tt.doc), Options{})
			if err == nil {
				t.Fatal("want error, got nil")
			}
			if !errors.Is(err, errors.ErrCodeInvalidTopology) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidTopology)
			}
		})
	}
}

func TestDecodeGeoJSON(t *testing.T) {
	fs, err := DecodeGeoJSON([]byte(testFeatureCollection), Options{})
	if err != nil {
		t.Fatalf("DecodeGeoJSON: %v", err)
	}
	ids := fs.RegionIDs()
	want := []string{"Bihar", "7", "Nowhere"}
	if len(ids) != len(want) {
		t.Fatalf("RegionIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("RegionIDs[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	if fs.Features[2].Geometry != nil {
		t.Errorf("null geometry decoded as %v", fs.Features[2].Geometry)
	}

	custom, err := DecodeGeoJSON([]byte(testFeatureCollection), Options{NameProperty: "NAME_1"})
	if err != nil {
		t.Fatal(err)
	}
	if got := custom.Features[0].RegionID; got != "BR" {
		t.Errorf("NAME_1 region = %q, want BR", got)
	}
	if custom.Version == fs.Version {
		t.Error("name property should change the version")
	}
}

func TestDecodeSniff(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantLen int
		wantErr bool
	}{
		{"topology", testTopology, 3, false},
		{"feature collection", testFeatureCollection, 3, false},
		{"geometry", `{"type": "Polygon", "coordinates": []}`, 0, true},
		{"garbage", `not json`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := Decode([]byte(tt.doc), Options{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && fs.Len() != tt.wantLen {
				t.Errorf("Len = %d, want %d", fs.Len(), tt.wantLen)
			}
		})
	}
}

func TestLocate(t *testing.T) {
	fs, err := DecodeTopoJSON([]byte(testTopology), Options{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		point  orb.Point
		want   string
		wantOK bool
	}{
		{"inside alpha", orb.Point{70.5, 10.5}, "Alpha", true},
		{"inside beta", orb.Point{71.5, 10.2}, "beta-id", true},
		{"outside", orb.Point{75, 10}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fs.Locate(tt.point)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Locate(%v) = (%q, %v), want (%q, %v)", tt.point, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	var empty *FeatureSet
	if _, ok := empty.Locate(orb.Point{0, 0}); ok {
		t.Error("nil FeatureSet located a point")
	}
}

func TestFromNames(t *testing.T) {
	a := FromNames("A", "B")
	b := FromNames("A", "B")
	c := FromNames("A", "C")

	if a.Len() != 2 || a.Features[1].RenderKey != "geo-1" || a.Features[1].RegionID != "B" {
		t.Errorf("FromNames = %+v", a.Features)
	}
	if a.Version != b.Version {
		t.Error("identical names, different versions")
	}
	if a.Version == c.Version {
		t.Error("different names, same version")
	}
}
