// Package render paints a canvas snapshot onto an in-memory raster.
//
// # Paint order
//
// [Compositor.Render] repaints the whole surface on every call, in this
// order:
//
//  1. Resize (or clear) the surface to the canvas size.
//  2. Base fill: flat white, white with a faint seeded dot texture, or a
//     dark vertical gradient.
//  3. The active background image, scaled to cover the canvas and cropped
//     around the center.
//  4. Visible layers bottom to top. Each layer is drawn into a scratch
//     raster translated to its center and rotated, then blended onto the
//     surface at the layer's opacity.
//  5. The dashed selection outline, if the selected layer is visible.
//
// Images that are not loaded yet are requested from [Resources] and skipped
// for this paint; the caller repaints when the load completes. A broken
// image draws nothing.
//
// # Export
//
// [Compositor.Export] renders a state without selection and encodes PNG at
// exactly the canvas size:
//
//	comp := render.New(loader, render.WithTextureSeed(42))
//	if err := comp.Export(f, state); err != nil {
//	    return err
//	}
//
// Drawing goes through github.com/fogleman/gg; scaling and cover-fit
// cropping use github.com/disintegration/imaging.
package render
