package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/canvas"
	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/geometry"
	"github.com/matzehuels/memeforge/pkg/layer"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "inspect [state.json|link|token|-]",
		Short: "List the layers of a meme with their bounding boxes",
		Long: `List the layers of a meme with their bounding boxes.

Layers are listed bottom to top. Boxes are in canvas pixels and contain the
rotated layer. With --at x,y the topmost visible layer under that point is
reported, the same way a click in the editor selects it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			st, err := c.loadState(source)
			if err != nil {
				return err
			}
			geo := geometry.New(nil)

			if at == "" {
				return writeLayerTable(c.out, st, geo)
			}
			p, err := parsePoint(at)
			if err != nil {
				return err
			}
			return writeHit(c.out, st, geo, p)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "hit-test the point x,y in canvas pixels")

	return cmd
}

func writeLayerTable(w io.Writer, st canvas.State, geo *geometry.Engine) error {
	fmt.Fprintf(w, "%s %s\n", StyleTitle.Render("Canvas"),
		StyleValue.Render(fmt.Sprintf("%dx%d %s", st.Size.Width, st.Size.Height, st.Fill)))
	if bg := st.ActiveBackground(); bg != "" {
		fmt.Fprintf(w, "%s %s %s\n", StyleTitle.Render("Background"),
			StyleValue.Render(bg), StyleDim.Render("("+string(st.BackgroundSource())+")"))
	}
	if len(st.Layers) == 0 {
		fmt.Fprintln(w, StyleDim.Render("no layers"))
		return nil
	}

	rows := layerRows(st, geo)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "ID", "Type", "Name", "Visible", "Position", "Scale", "Rotation", "Opacity", "Box").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return StyleHeader
			}
			if row >= 0 && row < len(st.Layers) && !st.Layers[row].Visible {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())
	return nil
}

// layerRows formats one table row per layer, bottom to top.
func layerRows(st canvas.State, geo *geometry.Engine) [][]string {
	rows := make([][]string, 0, len(st.Layers))
	for i, l := range st.Layers {
		box := "n/a"
		if b, err := geo.BoundingBox(l, st.Size); err == nil {
			box = b.String()
		}
		visible := "yes"
		if !l.Visible {
			visible = "no"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			l.ID,
			string(l.Kind()),
			layerLabel(l),
			visible,
			fmt.Sprintf("%.2f,%.2f", l.X, l.Y),
			fmt.Sprintf("%.2f", l.EffectiveScale()),
			fmt.Sprintf("%.0f°", l.Rotation),
			fmt.Sprintf("%.0f%%", l.Opacity*100),
			box,
		})
	}
	return rows
}

// layerLabel is the layer name, with the caption for text layers.
func layerLabel(l layer.Layer) string {
	if t, ok := l.TextContent(); ok {
		return fmt.Sprintf("%s %q", l.Name, t.Display())
	}
	return l.Name
}

func writeHit(w io.Writer, st canvas.State, geo *geometry.Engine, p geometry.Point) error {
	id, ok := geo.HitTest(st.Layers, st.Size, p)
	if !ok {
		fmt.Fprintf(w, "%s nothing at %.0f,%.0f\n", StyleDim.Render(iconInfo), p.X, p.Y)
		return nil
	}
	l, _ := st.Layers.Find(id)
	fmt.Fprintf(w, "%s %s %s\n", StyleSuccess.Render(iconSuccess), StyleHighlight.Render(id), StyleDim.Render(layerLabel(l)))
	return nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, errs.New(errs.ErrCodeInvalidInput, "point must be x,y, got %q", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return geometry.Point{}, errs.New(errs.ErrCodeInvalidInput, "point must be x,y, got %q", s)
	}
	return geometry.Point{X: x, Y: y}, nil
}
