package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/choropleth/pkg/io"
	"github.com/matzehuels/choropleth/pkg/pipeline"
)

// renderCommand creates the render command, which writes the descriptor
// document a renderer draws from.
func (c *CLI) renderCommand() *cobra.Command {
	var in inputOpts
	var output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Derive render descriptors and write them as JSON",
		Long: `Render aggregates the dataset, classifies the region values into quantile
color buckets and joins them onto the boundary features.

The result is a JSON document with one descriptor per feature (fill color,
tooltip text and GeoJSON geometry), the point markers, the legend and the
per-region aggregates. Documents are cached by dataset, boundaries and options.`,
		Example: `  choropleth render --data states.json --boundaries india.topo.json --object india -o map.json
  choropleth render --sample --classes 5 --palette blues`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, &in, output)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, o *inputOpts, output string) error {
	in, err := c.loadInputs(cmd, o)
	if err != nil {
		return err
	}
	defer in.close()

	prog := newProgress(c.Logger)
	data, info, err := in.runner.ExportWithCacheInfo(cmd.Context(), in.ds, in.fs, in.options(c))
	if err != nil {
		return err
	}

	var doc pipeline.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, region := range doc.Unmatched {
		c.Logger.Warn("region has data but no boundary", "region", region)
	}
	prog.done("Derived descriptors", "features", len(doc.Features), "cached", info.DocumentHit)

	if err := io.WriteDocument(data, output); err != nil {
		return err
	}
	if output == "" || output == "-" {
		return nil
	}

	missing := 0
	for _, f := range doc.Features {
		if !f.HasData {
			missing++
		}
	}
	printSuccess(c.Out, "Rendered %d features in %d %s classes", len(doc.Features), doc.Options.Classes, doc.Options.Palette)
	printFile(c.Out, output)
	printStats(c.Out, len(doc.Features), len(doc.Aggregates), missing, info.DocumentHit)
	return nil
}
