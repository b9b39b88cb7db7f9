package cli

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/share"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

type shareOpts struct {
	copy      bool
	tokenOnly bool
	qrPath    string
	qrSize    int
	base      string
}

// shareCommand creates the share command.
func (c *CLI) shareCommand() *cobra.Command {
	opts := shareOpts{qrSize: share.DefaultQRSize}

	cmd := &cobra.Command{
		Use:   "share [state.json|link|token|-]",
		Short: "Print the share link of a meme",
		Long: `Print the share link of a meme.

The link carries the whole canvas in its fragment (#s=<token>). Uploaded
images only exist on this machine and are left out of the link.

With --copy the link goes to the clipboard; if no clipboard is available
the link is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			if opts.base == "" {
				opts.base = c.Config.ShareBase
			}
			return c.runShare(cmd.Context(), source, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.copy, "copy", "c", false, "copy the link to the clipboard")
	cmd.Flags().BoolVar(&opts.tokenOnly, "token", false, "print the bare token instead of a link")
	cmd.Flags().StringVar(&opts.qrPath, "qr", "", "also write the link as a QR code PNG to this file")
	cmd.Flags().IntVar(&opts.qrSize, "qr-size", opts.qrSize, "QR code size in pixels")
	cmd.Flags().StringVar(&opts.base, "share-base", "", "base URL of the link (default from config)")

	return cmd
}

func (c *CLI) runShare(ctx context.Context, source string, opts shareOpts) error {
	logger := loggerFromContext(ctx)

	st, err := c.loadState(source)
	if err != nil {
		return err
	}
	if dropped := len(st.Layers) - len(share.Portable(st).Layers); dropped > 0 {
		printWarning("%d uploaded image(s) are not part of the link", dropped)
	}

	text, err := shareText(st, opts)
	if err != nil {
		return err
	}

	if opts.qrPath != "" {
		link, err := share.Link(opts.base, st)
		if err != nil {
			return err
		}
		data, err := share.QRCode(link, opts.qrSize)
		if err != nil {
			return err
		}
		if err := writeFile(opts.qrPath, data); err != nil {
			return err
		}
		printFile(opts.qrPath)
	}

	if opts.copy {
		err := writeClipboard(text)
		if err == nil {
			printSuccess("Copied %d characters to the clipboard", len(text))
			return nil
		}
		logger.Debug("clipboard unavailable", "err", err)
		printWarning("Clipboard unavailable, printing instead")
	}
	fmt.Fprintln(c.out, text)
	return nil
}

func shareText(st canvas.State, opts shareOpts) (string, error) {
	if opts.tokenOnly {
		return share.Encode(st)
	}
	return share.Link(opts.base, st)
}

// loadState reads a source the way the pipeline does. An empty source is
// the configured blank canvas.
func (c *CLI) loadState(source string) (canvas.State, error) {
	runner, err := c.newRunner(true)
	if err != nil {
		return canvas.State{}, err
	}
	defer runner.Close()

	opts := c.baseOptions()
	opts.Source = source
	return runner.Prepare(opts)
}
