package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/catalog"
)

// catalogCommand creates the catalog command.
func (c *CLI) catalogCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the template and sticker galleries",
		Long: `List the template and sticker galleries.

Names are accepted by render --template and --sticker, case-insensitively.
The galleries come from the config file when it defines them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCatalog(c.out, c.Config.Catalog(), kind)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only list one gallery: templates or stickers")

	return cmd
}

func writeCatalog(w io.Writer, cat catalog.Catalog, kind string) error {
	switch kind {
	case "":
		writeGallery(w, "Templates", cat.Templates)
		fmt.Fprintln(w)
		writeGallery(w, "Stickers", cat.Stickers)
	case "templates":
		writeGallery(w, "Templates", cat.Templates)
	case "stickers":
		writeGallery(w, "Stickers", cat.Stickers)
	default:
		return fmt.Errorf("unknown gallery %q (want templates or stickers)", kind)
	}
	return nil
}

func writeGallery(w io.Writer, title string, items []catalog.Item) {
	fmt.Fprintln(w, StyleTitle.Render(title))
	if len(items) == 0 {
		fmt.Fprintln(w, StyleDim.Render("  empty"))
		return
	}
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.Name, it.Ref}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Ref").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return StyleHeader
			case col == 0:
				return StyleHighlight
			default:
				return StyleDim
			}
		})
	fmt.Fprintln(w, t.Render())
}
