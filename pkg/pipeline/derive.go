package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/choropleth/pkg/aggregate"
	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/interact"
	"github.com/matzehuels/choropleth/pkg/join"
	"github.com/matzehuels/choropleth/pkg/observability"
	"github.com/matzehuels/choropleth/pkg/scale"
)

// Derive runs aggregate → classify → join without memoization.
//
// A nil dataset is treated as empty: every feature gets the fallback color.
// Data problems never fail the derivation; they are logged and reported in
// the result. Only invalid options and a missing feature set are errors.
func Derive(ctx context.Context, ds *dataset.Dataset, fs *geo.FeatureSet, opts Options) (res *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if fs == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "feature set is required")
	}
	if ds == nil {
		ds = dataset.FromRecords(nil)
	}
	logger := opts.Logger

	start := time.Now()
	observability.Pipeline().OnDeriveStart(ctx, ds.Len(), fs.Len())
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Descriptors)
		}
		observability.Pipeline().OnDeriveComplete(ctx, n, time.Since(start), err)
	}()

	// Stage 1: Aggregate
	aggs := aggregate.Mean(ds.Records)

	// Stage 2: Classify
	colors, err := opts.Colors()
	if err != nil {
		return nil, err
	}
	q := scale.NewQuantile(aggregate.Values(aggs), colors, opts.Fallback)
	switch {
	case q.Empty():
		logger.Warn("no region values; all features use the fallback color", "records", ds.Len())
	case q.Degenerate():
		logger.Warn("fewer distinct values than classes; some classes stay empty",
			"regions", len(aggs), "classes", opts.Classes)
	}

	// Stage 3: Join
	descriptors := join.Join(fs.Features, aggs, q, opts.Style())
	unmatched := join.Unmatched(fs.Features, aggs)
	missing := join.Missing(descriptors)

	if len(unmatched) > 0 {
		logger.Warn("regions without a boundary feature", "count", len(unmatched), "regions", unmatched)
	}
	if len(missing) > 0 {
		logger.Debug("features without data", "count", len(missing))
		observability.Pipeline().OnUnmatched(ctx, len(missing))
	}

	var points []dataset.Record
	for _, r := range ds.Records {
		if r.IsPoint() {
			points = append(points, r)
		}
	}

	res = &Result{
		DatasetVersion: ds.Version,
		FeatureVersion: fs.Version,
		Options:        opts,
		Aggregates:     aggs,
		Summaries:      aggregate.Summarize(ds.Records),
		Points:         points,
		Scale:          q,
		Descriptors:    descriptors,
		Unmatched:      unmatched,
		Missing:        missing,
		Diagnostics:    ds.Diagnostics,
		Labels:         interact.NewLabels(ds.Records),
		Stats: Stats{
			Records:    ds.Len(),
			Features:   fs.Len(),
			Regions:    len(aggs),
			DeriveTime: time.Since(start),
		},
	}

	logger.Info("derived choropleth",
		"features", fs.Len(),
		"regions", len(aggs),
		"classes", opts.Classes,
		"duration", res.Stats.DeriveTime)

	return res, nil
}
