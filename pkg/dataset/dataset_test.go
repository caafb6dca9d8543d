package dataset

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/choropleth/pkg/errors"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name       string
		raw        RawRecord
		wantRegion string
		wantValue  float64
		wantDrop   bool
	}{
		{"region float", RawRecord{Region: "Bihar", Value: 6.0}, "Bihar", 6, false},
		{"state alias", RawRecord{State: "Haryana", Value: 1}, "Haryana", 1, false},
		{"region wins over state", RawRecord{Region: "Gujarat", State: "Bihar", Value: 45}, "Gujarat", 45, false},
		{"int64 from toml", RawRecord{Region: "Gujarat", Value: int64(45)}, "Gujarat", 45, false},
		{"json number", RawRecord{Region: "Gujarat", Value: json.Number("4.5")}, "Gujarat", 4.5, false},
		{"zero is data", RawRecord{Region: "Madhya Pradesh", Value: 0}, "Madhya Pradesh", 0, false},
		{"negative", RawRecord{Region: "Delta", Value: -3.5}, "Delta", -3.5, false},

		{"missing region", RawRecord{Value: 1}, "", 0, true},
		{"blank region", RawRecord{Region: "   ", Value: 1}, "", 0, true},
		{"missing value", RawRecord{Region: "Bihar"}, "", 0, true},
		{"numeric string", RawRecord{Region: "Bihar", Value: "6"}, "", 0, true},
		{"bool", RawRecord{Region: "Bihar", Value: true}, "", 0, true},
		{"NaN", RawRecord{Region: "Bihar", Value: math.NaN()}, "", 0, true},
		{"Inf", RawRecord{Region: "Bihar", Value: math.Inf(1)}, "", 0, true},
		{"bad json number", RawRecord{Region: "Bihar", Value: json.Number("x")}, "", 0, true},
		{"short coordinates", RawRecord{Region: "Bihar", Value: 1, Coordinates: []float64{1}}, "", 0, true},
		{"out of range", RawRecord{Region: "Bihar", Value: 1, Coordinates: []float64{200, 10}}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := New(context.Background(), []RawRecord{tt.raw}, Options{})
			if tt.wantDrop {
				if ds.Len() != 0 {
					t.Fatalf("Len = %d, want record dropped", ds.Len())
				}
				if len(ds.Diagnostics) != 1 {
					t.Fatalf("Diagnostics = %v, want exactly one", ds.Diagnostics)
				}
				if got := ds.Diagnostics[0].Code; got != errors.ErrCodeInvalidRecord {
					t.Errorf("Code = %v, want %v", got, errors.ErrCodeInvalidRecord)
				}
				return
			}
			if ds.Len() != 1 {
				t.Fatalf("Len = %d, want 1 (diagnostics: %v)", ds.Len(), ds.Diagnostics)
			}
			got := ds.Records[0]
			if got.RegionID != tt.wantRegion || got.Value != tt.wantValue {
				t.Errorf("Record = %+v, want region %q value %v", got, tt.wantRegion, tt.wantValue)
			}
		})
	}
}

func TestNewKeepsGoodRecords(t *testing.T) {
	raws := []RawRecord{
		{Region: "A", Value: 10},
		{Region: "", Value: 5},
		{Region: "B", Value: "oops"},
		{Region: "A", Point: " p1 ", Value: 20, Coordinates: []float64{72.8, 19.0}},
	}
	ds := New(context.Background(), raws, Options{})

	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	if len(ds.Diagnostics) != 2 {
		t.Fatalf("Diagnostics = %d, want 2", len(ds.Diagnostics))
	}
	if ds.Diagnostics[0].Index != 1 || ds.Diagnostics[1].Index != 2 {
		t.Errorf("diagnostic indices = %d,%d, want 1,2", ds.Diagnostics[0].Index, ds.Diagnostics[1].Index)
	}
	if ds.Diagnostics[1].Region != "B" {
		t.Errorf("diagnostic region = %q, want B", ds.Diagnostics[1].Region)
	}

	p := ds.Records[1]
	if !p.IsPoint() || p.PointID != "p1" {
		t.Errorf("point record = %+v, want trimmed point id p1", p)
	}
	if p.Coordinates == nil || p.Coordinates.Lon() != 72.8 {
		t.Errorf("coordinates = %v, want lon 72.8", p.Coordinates)
	}
}

type stubLocator map[orb.Point]string

func (s stubLocator) Locate(p orb.Point) (string, bool) {
	id, ok := s[p]
	return id, ok
}

func TestNewLocator(t *testing.T) {
	loc := stubLocator{{72.8777, 19.076}: "Maharashtra"}
	raws := []RawRecord{
		{Point: "Mumbai", Value: 120, Coordinates: []float64{72.8777, 19.076}},
		{Point: "Nowhere", Value: 1, Coordinates: []float64{0, 0}},
		{Region: "Gujarat", Point: "Surat", Value: 9, Coordinates: []float64{72.8777, 19.076}},
	}
	ds := New(context.Background(), raws, Options{Locator: loc})

	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	if ds.Records[0].RegionID != "Maharashtra" {
		t.Errorf("located region = %q, want Maharashtra", ds.Records[0].RegionID)
	}
	if ds.Records[1].RegionID != "Gujarat" {
		t.Errorf("explicit region overridden: got %q", ds.Records[1].RegionID)
	}
	if len(ds.Diagnostics) != 1 || ds.Diagnostics[0].Index != 1 {
		t.Errorf("Diagnostics = %v, want unlocatable record 1", ds.Diagnostics)
	}
}

func TestVersion(t *testing.T) {
	a := FromRecords([]Record{{RegionID: "A", Value: 1}, {RegionID: "B", Value: 2}})
	b := FromRecords([]Record{{RegionID: "A", Value: 1}, {RegionID: "B", Value: 2}})
	c := FromRecords([]Record{{RegionID: "A", Value: 1}, {RegionID: "B", Value: 3}})

	if a.Version == "" {
		t.Fatal("Version is empty")
	}
	if a.Version != b.Version {
		t.Errorf("same content, different versions: %s vs %s", a.Version, b.Version)
	}
	if a.Version == c.Version {
		t.Errorf("different content, same version %s", a.Version)
	}
}

func TestRegions(t *testing.T) {
	ds := FromRecords([]Record{
		{RegionID: "B", Value: 1},
		{RegionID: "A", Value: 1},
		{RegionID: "B", PointID: "x", Value: 2},
	})
	got := ds.Regions()
	if len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Errorf("Regions() = %v, want [B A]", got)
	}

	var nilDS *Dataset
	if nilDS.Len() != 0 || nilDS.Regions() != nil {
		t.Error("nil dataset should be empty")
	}
}

func TestSample(t *testing.T) {
	ds := Sample()
	if len(ds.Diagnostics) != 0 {
		t.Fatalf("sample has diagnostics: %v", ds.Diagnostics)
	}
	if ds.Len() != 16 {
		t.Errorf("Len = %d, want 16", ds.Len())
	}
	if got := len(ds.Regions()); got != 12 {
		t.Errorf("regions = %d, want 12", got)
	}

	var mumbai *Record
	for i := range ds.Records {
		if ds.Records[i].PointID == "Mumbai" {
			mumbai = &ds.Records[i]
		}
	}
	if mumbai == nil {
		t.Fatal("sample has no Mumbai point")
	}
	if mumbai.RegionID != "Maharashtra" || mumbai.Value != 120 {
		t.Errorf("Mumbai = %+v", *mumbai)
	}
}
