package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/memeforge/pkg/canvas"
	memeio "github.com/matzehuels/memeforge/pkg/io"
	"github.com/matzehuels/memeforge/pkg/observability"
	"github.com/matzehuels/memeforge/pkg/render"
	"github.com/matzehuels/memeforge/pkg/share"
)

// Render generates every requested format for st without caching.
// Images that res has not loaded are skipped in the PNG.
func Render(ctx context.Context, res render.Resources, st canvas.State, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := RenderFormat(ctx, res, st, format, opts)
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderFormat generates a single artifact.
func RenderFormat(ctx context.Context, res render.Resources, st canvas.State, format string, opts Options) ([]byte, error) {
	start := time.Now()
	data, err := renderFormat(res, st, format, opts)
	observability.Render().OnExport(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

func renderFormat(res render.Resources, st canvas.State, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatPNG:
		c := render.New(res,
			render.WithTextureSeed(opts.Seed()),
			render.WithJitter(opts.Jitter),
			render.WithLogger(opts.Logger))
		var buf bytes.Buffer
		if err := c.Export(&buf, st); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return memeio.MarshalJSON(st)
	case FormatToken:
		token, err := share.Encode(st)
		if err != nil {
			return nil, err
		}
		return []byte(token + "\n"), nil
	case FormatLink:
		link, err := share.Link(opts.ShareBase, st)
		if err != nil {
			return nil, err
		}
		return []byte(link + "\n"), nil
	case FormatQR:
		link, err := share.Link(opts.ShareBase, st)
		if err != nil {
			return nil, err
		}
		return share.QRCode(link, opts.QRSize)
	default:
		return nil, ValidateFormat(format)
	}
}
