package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/canvas"
	memeio "github.com/matzehuels/memeforge/pkg/io"
	"github.com/matzehuels/memeforge/pkg/share"
)

// decodeCommand creates the decode command.
func (c *CLI) decodeCommand() *cobra.Command {
	var output string
	var strict bool

	cmd := &cobra.Command{
		Use:   "decode <link|token>",
		Short: "Turn a share link or token into a state file",
		Long: `Turn a share link or token into a state file.

A link that cannot be decoded opens as the default canvas, the same way the
editor treats it, and a warning is printed. Use --strict to fail instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDecode(cmd.Context(), args[0], output, strict)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the state to this file instead of stdout")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on a malformed link")

	return cmd
}

func (c *CLI) runDecode(ctx context.Context, link string, output string, strict bool) error {
	logger := loggerFromContext(ctx)

	st := canvas.Default()
	token, err := share.ParseLink(link)
	if err == nil {
		st, err = share.DecodeOrDefault(token)
	}
	if err != nil {
		if strict {
			return err
		}
		logger.Warn("malformed share link, using the default canvas", "err", err)
	}

	if output == "" {
		return memeio.WriteJSON(st, c.out)
	}
	if err := memeio.ExportJSON(st, output); err != nil {
		return err
	}
	printSuccess("Decoded %d layers", len(st.Layers))
	printFile(output)
	printKeyValue("Canvas", fmt.Sprintf("%dx%d %s", st.Size.Width, st.Size.Height, st.Fill))
	if bg := st.ActiveBackground(); bg != "" {
		printKeyValue("Background", bg)
	}
	printNextStep("Render it", appName+" render "+output)
	return nil
}
