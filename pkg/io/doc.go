// Package io reads choropleth inputs from files and writes the derived
// document back out.
//
// # Datasets
//
// Measurement records can be stored as JSON, YAML or TOML. The format is
// chosen from the file extension (see [errors.DataFormat]). JSON and YAML
// accept either a bare list of records or an object with a "records" list;
// TOML uses an array of tables:
//
//	[[records]]
//	region = "Maharashtra"
//	value = 100
//
// Every record has the fields region (or its alias state), point, value and
// coordinates ([lon, lat]). Records that fail validation do not abort the
// import; they end up in [dataset.Dataset.Diagnostics].
//
//	ds, err := io.ImportDataset(ctx, "data.yaml", dataset.Options{Logger: logger})
//
// # Boundaries
//
// Boundary files are TopoJSON topologies or GeoJSON feature collections.
// [ImportBoundaries] reads the file and hands it to [geo.Decode]:
//
//	fs, err := io.ImportBoundaries("india.topo.json", geo.Options{Object: "india"})
//
// # Export
//
// [WriteJSON] and [ExportJSON] serialize a [pipeline.Result] as the
// renderer-facing [pipeline.Document]. [WriteDocument] writes an already
// serialized document, such as one returned from a cache.
//
// [errors.DataFormat]: github.com/matzehuels/choropleth/pkg/errors.DataFormat
package io
