package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/interact"
	"github.com/matzehuels/choropleth/pkg/pipeline"
)

// demoExtraRegion is a boundary without sample data, shown in the fallback color.
const demoExtraRegion = "Kerala"

// demoCommand creates the demo command, which runs the pipeline on the
// embedded sample and replays a short hover sequence.
func (c *CLI) demoCommand() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the pipeline on the embedded India sample",
		Long: `Demo classifies the twelve sample states, adds one state without data to
show the fallback color, and replays a hover sequence over a region and the
point marker on top of it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Logger = c.Logger
			ds := dataset.New(cmd.Context(), dataset.SampleRaw(), dataset.Options{Logger: c.Logger})
			fs := geo.FromNames(append(ds.Regions(), demoExtraRegion)...)

			res, err := pipeline.Derive(cmd.Context(), ds, fs, opts)
			if err != nil {
				return err
			}
			printDemo(c.Out, res)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Classes, "classes", "k", pipeline.DefaultClasses, "number of color classes")
	cmd.Flags().StringVarP(&opts.Palette, "palette", "p", pipeline.DefaultPalette, "sequential palette name")

	return cmd
}

func printDemo(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w, StyleTitle.Render("Regions"))
	rows := make([][]string, 0, len(res.Descriptors))
	for _, d := range res.Descriptors {
		value, class := interact.NoData, "–"
		if d.HasData {
			value = interact.FormatValue(d.Value)
			class = strconv.Itoa(d.Bucket)
		}
		rows = append(rows, []string{swatch(d.Fill), d.RegionID, value, class, d.RenderKey})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Region", "Mean", "Class", "Key").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 2:
				return StyleNumber
			case col == 4:
				return StyleDim
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)

	printLegend(w, res)
	fmt.Fprintln(w)

	fmt.Fprintln(w, StyleTitle.Render("Hover"))
	mgr := interact.NewManager(res.Labels, interact.Options{})
	steps := []struct {
		action string
		target interact.Target
		pos    interact.Position
	}{
		{"enter", interact.Region("Maharashtra"), interact.Position{X: 120, Y: 340}},
		{"enter", interact.Point("Mumbai"), interact.Position{X: 104, Y: 352}},
		{"enter", interact.Region("Maharashtra"), interact.Position{X: 105, Y: 352}},
		{"leave", interact.Point("Mumbai"), interact.Position{X: 106, Y: 352}},
		{"enter", interact.Region("Gujarat"), interact.Position{X: 98, Y: 300}},
		{"leave", interact.Region("Gujarat"), interact.Position{X: 90, Y: 290}},
		{"enter", interact.Region(demoExtraRegion), interact.Position{X: 140, Y: 470}},
	}
	for _, s := range steps {
		switch s.action {
		case "enter":
			mgr.Enter(s.target, s.pos)
		case "leave":
			mgr.Leave(s.target, s.pos)
		}
		event := StyleDim.Render(fmt.Sprintf("%-5s %-20s", s.action, s.target))
		if tip, ok := mgr.Tooltip(); ok {
			a := tip.Anchor()
			fmt.Fprintf(w, "  %s %s %s %s\n", event, iconArrow, StyleValue.Render(tip.Text), StyleDim.Render(fmt.Sprintf("@ %g,%g", a.X, a.Y)))
		} else {
			fmt.Fprintf(w, "  %s %s %s\n", event, iconArrow, StyleDim.Render("no tooltip"))
		}
	}
}
