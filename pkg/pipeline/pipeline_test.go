package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/observability"
	"github.com/matzehuels/choropleth/pkg/palette"
)

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if o.Classes != DefaultClasses || o.Palette != "greens" {
		t.Errorf("defaults = %d %s", o.Classes, o.Palette)
	}
	if o.Fallback != "#eeeeee" || o.Stroke != "#ffffff" || o.StrokeWidth != 0.5 || o.Hover != "#087ed8" {
		t.Errorf("style defaults = %+v", o.Style())
	}
	if o.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"too many classes", Options{Classes: 21}, errors.ErrCodeInvalidInput},
		{"negative classes", Options{Classes: -1}, errors.ErrCodeInvalidInput},
		{"negative stroke", Options{StrokeWidth: -1}, errors.ErrCodeInvalidInput},
		{"unknown palette", Options{Palette: "rainbow"}, errors.ErrCodeInvalidPalette},
		{"bad color", Options{Fallback: "grey"}, errors.ErrCodeInvalidPalette},
		{"fallback equals class", Options{Palette: "greys", Fallback: "#FFF"}, errors.ErrCodeInvalidPalette},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("want error, got nil")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestOptionsHashNormalized(t *testing.T) {
	a := Options{Palette: "Greens", Fallback: "#EEE"}
	b := Options{}
	if err := a.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := b.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if a.Hash() != b.Hash() {
		t.Error("equivalent options hash differently")
	}
	c := Options{Classes: 5}
	_ = c.ValidateAndSetDefaults()
	if c.Hash() == b.Hash() {
		t.Error("different class counts hash equally")
	}
}

func TestDeriveTwoRegions(t *testing.T) {
	ds := dataset.FromRecords([]dataset.Record{
		{RegionID: "A", Value: 10},
		{RegionID: "A", Value: 20},
		{RegionID: "B", Value: 5},
	})
	fs := geo.FromNames("A", "B", "C")

	res, err := Derive(context.Background(), ds, fs, Options{Classes: 2})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	if len(res.Aggregates) != 2 || res.Aggregates[0].Value != 15 || res.Aggregates[1].Value != 5 {
		t.Fatalf("Aggregates = %v, want A=15 B=5", res.Aggregates)
	}
	if len(res.Descriptors) != 3 {
		t.Fatalf("Descriptors = %d, want 3", len(res.Descriptors))
	}

	a, b, c := res.Descriptors[0], res.Descriptors[1], res.Descriptors[2]
	if a.Bucket != 1 || b.Bucket != 0 {
		t.Errorf("buckets A=%d B=%d, want 1 and 0", a.Bucket, b.Bucket)
	}
	if a.Fill == b.Fill {
		t.Error("A and B share a fill")
	}
	if c.HasData || c.Fill != palette.DefaultFallback || c.Bucket != -1 {
		t.Errorf("C = %+v, want fallback", c)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "C" {
		t.Errorf("Missing = %v, want [C]", res.Missing)
	}
	if res.Stats.Records != 3 || res.Stats.Features != 3 || res.Stats.Regions != 2 {
		t.Errorf("Stats = %+v", res.Stats)
	}
}

func TestDeriveEdgeCases(t *testing.T) {
	fs := geo.FromNames("A", "B")

	t.Run("empty dataset", func(t *testing.T) {
		res, err := Derive(context.Background(), nil, fs, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if !res.Scale.Empty() {
			t.Error("scale not empty")
		}
		for _, d := range res.Descriptors {
			if d.HasData || d.Fill != palette.DefaultFallback {
				t.Errorf("%s = %+v, want fallback", d.RegionID, d)
			}
		}
	})

	t.Run("degenerate domain", func(t *testing.T) {
		ds := dataset.FromRecords([]dataset.Record{{RegionID: "A", Value: 3}, {RegionID: "B", Value: 3}})
		res, err := Derive(context.Background(), ds, fs, Options{Classes: 9})
		if err != nil {
			t.Fatal(err)
		}
		if !res.Scale.Degenerate() {
			t.Error("Degenerate() = false")
		}
		if res.Descriptors[0].Fill != res.Descriptors[1].Fill {
			t.Error("equal values got different fills")
		}
	})

	t.Run("unmatched regions", func(t *testing.T) {
		ds := dataset.FromRecords([]dataset.Record{{RegionID: "A", Value: 1}, {RegionID: "Orissa", Value: 2}})
		res, err := Derive(context.Background(), ds, fs, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Unmatched) != 1 || res.Unmatched[0] != "Orissa" {
			t.Errorf("Unmatched = %v", res.Unmatched)
		}
	})

	t.Run("nil features", func(t *testing.T) {
		if _, err := Derive(context.Background(), nil, nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("err = %v, want INVALID_INPUT", err)
		}
	})
}

type countingHooks struct {
	observability.NoopPipelineHooks
	starts, unmatched int
}

func (h *countingHooks) OnDeriveStart(context.Context, int, int) { h.starts++ }
func (h *countingHooks) OnUnmatched(_ context.Context, n int)    { h.unmatched += n }

func TestRunnerMemo(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	ds := dataset.Sample()
	fs := geo.FromNames(ds.Regions()...)
	ctx := context.Background()

	first, hit, err := r.DeriveWithCacheInfo(ctx, ds, fs, Options{})
	if err != nil || hit {
		t.Fatalf("first derive: hit %v, err %v", hit, err)
	}
	for i := 0; i < 10; i++ {
		res, hit, err := r.DeriveWithCacheInfo(ctx, ds, fs, Options{})
		if err != nil || !hit || res != first {
			t.Fatalf("repeat %d: hit %v, same %v, err %v", i, hit, res == first, err)
		}
	}
	if hooks.starts != 1 {
		t.Errorf("derivations = %d, want 1", hooks.starts)
	}

	// A reloaded dataset with new content gets a new version and is recomputed.
	reloaded := dataset.FromRecords(append(append([]dataset.Record(nil), ds.Records...), dataset.Record{RegionID: "Kerala", Value: 50}))
	if _, hit, _ := r.DeriveWithCacheInfo(ctx, reloaded, fs, Options{}); hit {
		t.Error("new dataset version served from memo")
	}
	if hooks.unmatched != 0 {
		t.Errorf("unmatched features = %d, want 0", hooks.unmatched)
	}

	// Different options are recomputed too.
	if _, hit, _ := r.DeriveWithCacheInfo(ctx, reloaded, fs, Options{Classes: 3}); hit {
		t.Error("new options served from memo")
	}

	r.Invalidate()
	if _, hit, _ := r.DeriveWithCacheInfo(ctx, reloaded, fs, Options{Classes: 3}); hit {
		t.Error("memo survived Invalidate")
	}
}

func TestRunnerExport(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	ds := dataset.Sample()
	fs := geo.FromNames(append(ds.Regions(), "Kerala")...)
	ctx := context.Background()

	data, info, err := r.ExportWithCacheInfo(ctx, ds, fs, Options{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if info.DocumentHit {
		t.Error("first export reported a cache hit")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not JSON: %v", err)
	}
	if doc.Version != DocumentVersion || doc.DatasetVersion != ds.Version {
		t.Errorf("header = %d %s", doc.Version, doc.DatasetVersion)
	}
	if len(doc.Features) != 13 {
		t.Fatalf("features = %d, want 13", len(doc.Features))
	}
	if len(doc.Legend) != DefaultClasses {
		t.Errorf("legend = %d entries, want %d", len(doc.Legend), DefaultClasses)
	}
	if len(doc.Points) != 4 {
		t.Errorf("points = %d, want 4", len(doc.Points))
	}

	var maharashtra, kerala *DocumentFeature
	for i := range doc.Features {
		switch doc.Features[i].RegionID {
		case "Maharashtra":
			maharashtra = &doc.Features[i]
		case "Kerala":
			kerala = &doc.Features[i]
		}
	}
	if maharashtra == nil || maharashtra.Value == nil || *maharashtra.Value != 100 {
		t.Fatalf("Maharashtra = %+v", maharashtra)
	}
	if maharashtra.Tooltip != "Maharashtra: 100 (avg of 3 points, total 300)" {
		t.Errorf("tooltip = %q", maharashtra.Tooltip)
	}
	if kerala == nil || kerala.HasData || kerala.Value != nil || kerala.Tooltip != "Kerala: N/A" {
		t.Errorf("Kerala = %+v", kerala)
	}

	again, info, err := r.ExportWithCacheInfo(ctx, ds, fs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !info.DocumentHit {
		t.Error("second export missed the cache")
	}
	if string(again) != string(data) {
		t.Error("cached document differs")
	}
}

// failingCache fails every call, like an unreachable remote backend.
type failingCache struct{ cache.NullCache }

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, cache.ErrUnavailable
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return cache.ErrUnavailable
}

func TestRunnerExportCacheFailure(t *testing.T) {
	r := NewRunner(failingCache{}, nil, nil)
	ds := dataset.Sample()
	data, info, err := r.ExportWithCacheInfo(context.Background(), ds, geo.FromNames(ds.Regions()...), Options{})
	if err != nil {
		t.Fatalf("cache failure broke export: %v", err)
	}
	if info.DocumentHit || len(data) == 0 {
		t.Errorf("info = %+v, %d bytes", info, len(data))
	}
}
