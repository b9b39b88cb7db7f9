// Package pkg holds the memeforge libraries.
//
// # Overview
//
// Memeforge composes memes: a canvas with a fill and an optional background
// image, and an ordered stack of text, sticker and mascot layers on top.
// The packages are organized bottom up:
//
//  1. [canvas] and [layer] - the editable state and its JSON form
//  2. [geometry] - layer extents, rotated bounding boxes, hit tests, drags
//  3. [render] - the compositor that paints a state onto a raster
//  4. [resource] - non-blocking image loading for templates, stickers and uploads
//  5. [editor] - a mutable editing session with selection and pointer input
//  6. [share] - URL-safe share tokens, links and QR codes
//  7. [pipeline] - batch orchestration (prepare → resolve → render) with caching
//
// Supporting packages: [cache] (file cache and key scoping), [catalog]
// (template and sticker galleries), [config] (TOML settings), [io] (state
// files and sources), [fonts], [errors], [observability] and [buildinfo].
//
// # Data Flow
//
//	state file / share link / flags
//	         ↓
//	    [pipeline] Prepare (editor session applies overrides)
//	         ↓
//	    [resource] Loader (fetch and decode every image ref)
//	         ↓
//	    [render] Compositor
//	         ↓
//	    PNG / JSON / token / link / QR
//
// # Quick Start
//
//	loader := resource.NewLoader(resource.WithAssetRoot("./public"))
//	defer loader.Close()
//
//	s := editor.New()
//	s.AddText()
//	s.SetText("one does not simply")
//	_ = s.SetTemplate("/templates/paper.jpg")
//
//	_ = loader.Preload(ctx, s.State().Refs())
//	comp := render.New(loader)
//	_ = comp.Export(w, s.State())
//
//	link, _ := share.Link("https://memes.example/", s.State())
package pkg
