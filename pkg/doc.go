// Package pkg provides the core libraries for choropleth maps.
//
// # Overview
//
// A choropleth colors each region of a map by a measured value. The pkg
// directory turns measurement records and boundary files into per-feature
// render descriptors, a legend and hover tooltips. It is organized into
// these areas:
//
//  1. Inputs: [dataset] (validated records), [geo] (TopoJSON/GeoJSON features)
//  2. Derivation: [aggregate], [palette], [scale], [join]
//  3. Interaction: [interact] (hover state and tooltip text)
//  4. Orchestration: [pipeline] (aggregate → classify → join, memo, export)
//  5. Infrastructure: [cache], [httputil], [session], [config], [io]
//  6. Cross-cutting: [errors], [observability], [buildinfo]
//
// # Architecture
//
// The data flow through choropleth:
//
//	Dataset file (JSON/YAML/TOML)      Boundary file (TopoJSON/GeoJSON)
//	         ↓                                   ↓
//	    [dataset] package                   [geo] package
//	         ↓                                   ↓
//	    [aggregate] mean per region              │
//	         ↓                                   │
//	    [scale] quantile classes ([palette])     │
//	         ↓                                   ↓
//	    [join] one descriptor per feature ───────┘
//	         ↓
//	    JSON document, legend, tooltips
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/choropleth/pkg/dataset"
//	    "github.com/matzehuels/choropleth/pkg/geo"
//	    "github.com/matzehuels/choropleth/pkg/pipeline"
//	)
//
//	ds := dataset.Sample()
//	fs := geo.FromNames(ds.Regions()...)
//
//	res, err := pipeline.Derive(context.Background(), ds, fs, pipeline.Options{
//	    Classes: 5,
//	    Palette: "blues",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range res.Descriptors {
//	    fmt.Println(d.RegionID, d.Fill)
//	}
//
// # Error Handling
//
// Loading and validation errors are [errors.Error] values with a stable
// code. Malformed dataset records never fail a load; they are excluded and
// reported as diagnostics.
//
// # Caching
//
// Exported documents are cached by dataset version, boundary version and
// options hash. See [cache] for the file, Redis and MongoDB backends.
package pkg
