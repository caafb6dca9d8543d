package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/choropleth/pkg/interact"
	"github.com/matzehuels/choropleth/pkg/pipeline"
	"github.com/matzehuels/choropleth/pkg/scale"
)

// legendCommand creates the legend command, which prints the color classes.
func (c *CLI) legendCommand() *cobra.Command {
	var in inputOpts
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "legend",
		Short: "Print the quantile color classes of a dataset",
		Example: `  choropleth legend --data states.json --classes 5
  choropleth legend --sample --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := c.loadInputs(cmd, &in)
			if err != nil {
				return err
			}
			defer loaded.close()

			res, err := loaded.runner.Derive(cmd.Context(), loaded.ds, loaded.fs, loaded.options(c))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(legendEntries(res))
			}
			printLegend(c.Out, res)
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the legend as JSON")

	return cmd
}

func legendEntries(res *pipeline.Result) []scale.LegendEntry {
	if entries := res.Scale.Legend(); entries != nil {
		return entries
	}
	return []scale.LegendEntry{}
}

// printLegend renders the legend as a table: one row per class plus a
// row for the fallback color when some features have no data.
func printLegend(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%d %s classes", res.Options.Classes, res.Options.Palette)))

	entries := res.Scale.Legend()
	if len(entries) == 0 {
		printInfo(w, "No values to classify; every feature uses the fallback color")
		fmt.Fprintln(w, "  "+swatch(res.Options.Fallback)+" "+StyleDim.Render(string(res.Options.Fallback)))
		return
	}
	if res.Scale.Degenerate() {
		printWarning(w, "All regions share one value; every region is in the first class")
	}

	rows := make([][]string, 0, len(entries)+1)
	for _, e := range entries {
		rows = append(rows, []string{
			swatch(e.Color),
			strconv.Itoa(e.Bucket),
			interact.FormatValue(e.Lower) + " – " + interact.FormatValue(e.Upper),
			strconv.Itoa(e.Count),
			string(e.Color),
		})
	}
	if len(res.Missing) > 0 {
		rows = append(rows, []string{
			swatch(res.Options.Fallback),
			"–",
			interact.NoData,
			strconv.Itoa(len(res.Missing)),
			string(res.Options.Fallback),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Class", "Range", "Regions", "Color").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 3:
				return StyleNumber
			case col == 4:
				return StyleDim
			}
			return lipgloss.NewStyle()
		})

	fmt.Fprintln(w, t.Render())
}
