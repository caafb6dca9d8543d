package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/choropleth/pkg/config"
	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/httputil"
	"github.com/matzehuels/choropleth/pkg/io"
	"github.com/matzehuels/choropleth/pkg/pipeline"
)

// inputOpts holds the flags shared by every command that derives a map.
// Flags left at their zero value fall back to the config file and
// environment.
type inputOpts struct {
	data         string
	sample       bool
	boundaries   string
	object       string
	nameProperty string
	classes      int
	palette      string
	locatePoints bool
	noCache      bool
}

func (o *inputOpts) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.data, "data", "d", "", "dataset file or URL (.json, .yaml, .toml)")
	f.BoolVar(&o.sample, "sample", false, "use the embedded India sample dataset")
	f.StringVarP(&o.boundaries, "boundaries", "b", "", "TopoJSON or GeoJSON boundary file or URL")
	f.StringVar(&o.object, "object", "", "TopoJSON object to read (default: all objects)")
	f.StringVar(&o.nameProperty, "name-property", "", "feature property holding the region name")
	f.IntVarP(&o.classes, "classes", "k", 0, "number of color classes")
	f.StringVarP(&o.palette, "palette", "p", "", "sequential palette name")
	f.BoolVar(&o.locatePoints, "locate-points", false, "assign regions to points by their coordinates")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the document and download cache")
}

// apply overrides cfg with the flags the user set and revalidates it.
func (o *inputOpts) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("object") {
		cfg.Object = o.object
	}
	if f.Changed("name-property") {
		cfg.NameProperty = o.nameProperty
	}
	if f.Changed("classes") {
		cfg.Classes = o.classes
	}
	if f.Changed("palette") {
		cfg.Palette = o.palette
	}
	if f.Changed("locate-points") {
		cfg.LocatePoints = o.locatePoints
	}
	return cfg.Validate()
}

// inputs is everything a command needs to derive a map.
type inputs struct {
	cfg    *config.Config
	ds     *dataset.Dataset
	fs     *geo.FeatureSet
	runner *pipeline.Runner
}

// options returns the derivation options with the CLI logger attached.
func (in *inputs) options(c *CLI) pipeline.Options {
	opts := in.cfg.PipelineOptions()
	opts.Logger = c.Logger
	return opts
}

func (in *inputs) close() {
	_ = in.runner.Close()
}

// loadInputs resolves config and flags, then loads boundaries and the dataset.
//
// Without --boundaries, one geometry-less feature per dataset region is used,
// which is enough for legends, tooltips and the explorer.
func (c *CLI) loadInputs(cmd *cobra.Command, o *inputOpts) (*inputs, error) {
	ctx := cmd.Context()
	if o.data == "" && !o.sample {
		return nil, fmt.Errorf("either --data or --sample is required")
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := o.apply(cmd, cfg); err != nil {
		return nil, err
	}

	cc := c.newCache(ctx, cfg, o.noCache)
	in := &inputs{cfg: cfg, runner: pipeline.NewRunner(cc, nil, c.Logger)}
	fetcher := httputil.NewFetcher(cc, c.Logger)

	if o.boundaries != "" {
		fs, err := spinWhile(ctx, o.boundaries, "Loading boundaries", func() (*geo.FeatureSet, error) {
			return io.LoadBoundaries(ctx, fetcher, o.boundaries, cfg.GeoOptions())
		})
		if err != nil {
			in.close()
			return nil, err
		}
		in.fs = fs
		c.Logger.Info("Loaded boundaries", "features", fs.Len(), "source", o.boundaries)
	}

	dsOpts := dataset.Options{Logger: c.Logger}
	if cfg.LocatePoints {
		if in.fs == nil {
			in.close()
			return nil, fmt.Errorf("--locate-points needs --boundaries")
		}
		dsOpts.Locator = in.fs
	}

	if o.sample {
		in.ds = dataset.New(ctx, dataset.SampleRaw(), dsOpts)
	} else {
		ds, err := spinWhile(ctx, o.data, "Loading dataset", func() (*dataset.Dataset, error) {
			return io.LoadDataset(ctx, fetcher, o.data, dsOpts)
		})
		if err != nil {
			in.close()
			return nil, err
		}
		in.ds = ds
	}
	c.Logger.Info("Loaded dataset", "records", in.ds.Len(), "dropped", len(in.ds.Diagnostics))

	if in.fs == nil {
		in.fs = geo.FromNames(in.ds.Regions()...)
	}
	return in, nil
}

// spinWhile runs load, animating a spinner on stderr when src is a URL.
func spinWhile[T any](ctx context.Context, src, msg string, load func() (T, error)) (T, error) {
	if !httputil.IsURL(src) {
		return load()
	}
	s := newSpinner(ctx, os.Stderr, msg+"...")
	s.Start()
	defer s.Stop()
	return load()
}
