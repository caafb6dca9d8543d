// Package pipeline provides the data-to-visual derivation for choropleths.
//
// This package implements the complete aggregate → classify → join pipeline
// that the CLI, the HTTP server and the terminal explorer share. By
// centralizing it, every entry point colors the same data the same way.
//
// # Architecture
//
// The derivation has three stages:
//
//  1. Aggregate: reduce dataset records to one mean value per region
//  2. Classify: build a quantile color scale over the aggregated values
//  3. Join: produce one render descriptor per boundary feature
//
// A [Runner] memoizes the last derivation keyed by dataset version,
// boundary version and options, so hover-driven redraws do not recompute
// it. [Runner.Export] serializes the result as a JSON [Document] and caches
// it in a [cache.Cache].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Classes: 9, Palette: "greens"}
//	result, err := runner.Derive(ctx, ds, features, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range result.Descriptors {
//	    draw(d.Geometry, d.Fill, d.Stroke)
//	}
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/choropleth/pkg/aggregate"
	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/interact"
	"github.com/matzehuels/choropleth/pkg/join"
	"github.com/matzehuels/choropleth/pkg/palette"
	"github.com/matzehuels/choropleth/pkg/scale"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Server and Explorer
// =============================================================================

const (
	// DefaultClasses is the number of color classes.
	DefaultClasses = 9

	// MaxClasses bounds the number of classes. Beyond this adjacent colors
	// of a sequential ramp are no longer distinguishable.
	MaxClasses = 20
)

// DefaultPalette is the default sequential ramp.
const DefaultPalette = palette.DefaultRamp

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the derivation.
// This struct supports JSON serialization for API responses and cache keys.
type Options struct {
	Classes     int           `json:"classes"`
	Palette     string        `json:"palette"`
	Fallback    palette.Color `json:"fallback"`
	Stroke      palette.Color `json:"stroke"`
	StrokeWidth float64       `json:"stroke_width"`
	Hover       palette.Color `json:"hover"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a derivation.
type Result struct {
	// DatasetVersion and FeatureVersion identify the inputs.
	DatasetVersion string
	FeatureVersion string

	// Options are the validated options the result was derived with.
	Options Options

	// Aggregates holds one mean value per region with data, first-appearance order.
	Aggregates []aggregate.Value

	// Summaries holds mean, total and count per region for tooltips and export.
	Summaries []aggregate.Summary

	// Points holds point-level records, in dataset order.
	Points []dataset.Record

	// Scale is the quantile classifier over Aggregates.
	Scale *scale.Quantile

	// Descriptors holds one entry per feature, in feature order.
	Descriptors []join.RenderDescriptor

	// Unmatched lists aggregate regions that no feature carries.
	Unmatched []string

	// Missing lists features drawn with the fallback color.
	Missing []string

	// Diagnostics are the dataset records excluded at load time.
	Diagnostics []dataset.Diagnostic

	// Labels formats hover tooltips for this result.
	Labels *interact.Labels

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains derivation statistics.
type Stats struct {
	Records    int
	Features   int
	Regions    int
	DeriveTime time.Duration
}

// CacheInfo tracks which layers served a request.
type CacheInfo struct {
	MemoHit     bool // Whether the derivation came from the runner's memo
	DocumentHit bool // Whether the exported document came from the cache
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills in zero-valued options.
func (o *Options) SetDefaults() {
	if o.Classes == 0 {
		o.Classes = DefaultClasses
	}
	if o.Palette == "" {
		o.Palette = DefaultPalette
	}
	if o.Fallback == "" {
		o.Fallback = palette.DefaultFallback
	}
	if o.Stroke == "" {
		o.Stroke = palette.DefaultStroke
	}
	if o.StrokeWidth == 0 {
		o.StrokeWidth = palette.DefaultStrokeWidth
	}
	if o.Hover == "" {
		o.Hover = palette.DefaultHover
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateAndSetDefaults applies defaults, normalizes colors and checks
// that the fallback stays distinguishable from every class color.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()

	if o.Classes < 1 || o.Classes > MaxClasses {
		return errors.New(errors.ErrCodeInvalidInput, "classes must be between 1 and %d, got %d", MaxClasses, o.Classes)
	}
	if o.StrokeWidth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "stroke width must not be negative, got %g", o.StrokeWidth)
	}

	for _, c := range []*palette.Color{&o.Fallback, &o.Stroke, &o.Hover} {
		parsed, err := palette.Parse(string(*c))
		if err != nil {
			return err
		}
		*c = parsed
	}

	ramp, err := palette.Lookup(o.Palette)
	if err != nil {
		return err
	}
	o.Palette = ramp.Name
	if err := palette.Validate(palette.Sample(ramp, o.Classes), o.Fallback); err != nil {
		return err
	}

	o.validated = true
	return nil
}

// Colors returns the class colors, lightest first.
func (o *Options) Colors() ([]palette.Color, error) {
	ramp, err := palette.Lookup(o.Palette)
	if err != nil {
		return nil, err
	}
	return palette.Sample(ramp, o.Classes), nil
}

// Style returns the presentation constants for the join.
func (o *Options) Style() join.Style {
	return join.Style{
		Fallback: o.Fallback,
		Stroke:   join.StrokeStyle{Color: o.Stroke, Width: o.StrokeWidth},
		Hover:    o.Hover,
	}
}

// Hash fingerprints the serialized options for memo and cache keys.
func (o *Options) Hash() string {
	return cache.HashJSON(o)
}

// String summarizes the options for log output.
func (o *Options) String() string {
	return fmt.Sprintf("%d %s classes", o.Classes, o.Palette)
}
