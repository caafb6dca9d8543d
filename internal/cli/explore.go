package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/choropleth/pkg/interact"
	"github.com/matzehuels/choropleth/pkg/palette"
	"github.com/matzehuels/choropleth/pkg/pipeline"
)

var (
	exploreSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	exploreTooltipStyle  = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan).
				Padding(0, 1)
)

// exploreCommand creates the explore command, a terminal stand-in for
// pointer hover over the map.
func (c *CLI) exploreCommand() *cobra.Command {
	var in inputOpts

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Hover over regions and point markers in the terminal",
		Long: `Explore lists every region and point marker with its fill color. Moving
the cursor onto a row is a pointer entering it and leaving the previous row,
so the tooltip follows the same rules as on a rendered map.`,
		Example: `  choropleth explore --sample
  choropleth explore --data states.json --boundaries india.topo.json`,
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
			_, err = tea.NewProgram(newExploreModel(res), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	in.register(cmd)
	return cmd
}

// =============================================================================
// exploreModel - Interactive hover explorer
// =============================================================================

// exploreItem is one hoverable row.
type exploreItem struct {
	target interact.Target
	fill   palette.Color
}

// exploreModel is the bubbletea model of the explorer. Each row stands for
// a hover target; the cursor row is the one under the pointer.
type exploreModel struct {
	items  []exploreItem
	cursor int
	offset int
	height int

	// hovering is false after esc until the next movement.
	hovering bool

	mgr    *interact.Manager
	title  string
	hoverC palette.Color
}

func newExploreModel(res *pipeline.Result) exploreModel {
	items := make([]exploreItem, 0, len(res.Descriptors)+len(res.Points))
	for _, d := range res.Descriptors {
		items = append(items, exploreItem{target: interact.Region(d.RegionID), fill: d.Fill})
	}
	for _, p := range res.Points {
		items = append(items, exploreItem{target: interact.Point(p.PointID), fill: res.Options.Hover})
	}

	m := exploreModel{
		items:  items,
		height: 15,
		mgr:    interact.NewManager(res.Labels, interact.Options{}),
		title:  fmt.Sprintf("%d regions · %d points · %d %s classes", len(res.Descriptors), len(res.Points), res.Options.Classes, res.Options.Palette),
		hoverC: res.Options.Hover,
	}
	if len(items) > 0 {
		m.hover(0)
	}
	return m
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.moveTo(m.cursor - 1)
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.moveTo(m.cursor + 1)
			}
		case "esc":
			if m.hovering {
				m.mgr.Leave(m.items[m.cursor].target, m.position(m.cursor))
				m.hovering = false
			}
		case "enter", " ":
			if len(m.items) > 0 {
				m.hover(m.cursor)
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	}
	return m, nil
}

// moveTo leaves the current row and enters row i.
func (m *exploreModel) moveTo(i int) {
	if m.hovering {
		m.mgr.Leave(m.items[m.cursor].target, m.position(m.cursor))
	}
	m.cursor = i
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	m.hover(i)
}

func (m *exploreModel) hover(i int) {
	m.mgr.Enter(m.items[i].target, m.position(i))
	m.hovering = true
}

// position is the pointer position for row i, one cell per row.
func (m exploreModel) position(i int) interact.Position {
	return interact.Position{X: 4, Y: float64(i - m.offset + 3)}
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Choropleth Explorer"))
	b.WriteString("  " + StyleDim.Render(m.title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ move  ⏎ enter  esc leave  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.items))
	for i := m.offset; i < end; i++ {
		it := m.items[i]
		cursor := "  "
		style := exploreNormalStyle
		fill := it.fill
		if i == m.cursor {
			cursor = "▸ "
			style = exploreSelectedStyle
			if m.hovering && it.target == m.mgr.Current() {
				fill = m.hoverC
			}
		}
		kind := StyleDim.Render(fmt.Sprintf("%-6s", it.target.Kind))
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", cursor, swatch(fill), kind, style.Render(it.target.ID)))
	}

	b.WriteString("\n")
	if tip, ok := m.mgr.Tooltip(); ok {
		a := tip.Anchor()
		b.WriteString(exploreTooltipStyle.Render(tip.Text))
		b.WriteString("\n")
		b.WriteString(StyleDim.Render(fmt.Sprintf("  anchored at (%g, %g)", a.X, a.Y)))
	} else {
		b.WriteString(StyleDim.Render("  no tooltip"))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.items))))
	return b.String()
}
