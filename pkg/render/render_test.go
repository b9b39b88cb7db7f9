package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"testing"

	"github.com/fogleman/gg"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/layer"
	"github.com/matzehuels/memeforge/pkg/resource"
	"github.com/matzehuels/memeforge/pkg/share"
)

type fakeResources struct {
	images    map[string]image.Image
	failed    map[string]bool
	requested []string
}

func newFakeResources() *fakeResources {
	return &fakeResources{images: map[string]image.Image{}, failed: map[string]bool{}}
}

func (f *fakeResources) Lookup(ref string) (image.Image, resource.Status) {
	if img, ok := f.images[ref]; ok {
		return img, resource.StatusReady
	}
	if f.failed[ref] {
		return nil, resource.StatusFailed
	}
	return nil, resource.StatusPending
}

func (f *fakeResources) Request(ref string) { f.requested = append(f.requested, ref) }

func solid(c color.Color, w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func rgbaAt(s *Surface, x, y int) color.RGBA {
	return s.Image().RGBAAt(x, y)
}

func closeTo(got color.RGBA, want color.RGBA, tol int) bool {
	d := func(a, b uint8) bool {
		v := int(a) - int(b)
		return v <= tol && v >= -tol
	}
	return d(got.R, want.R) && d(got.G, want.G) && d(got.B, want.B) && d(got.A, want.A)
}

func state(w, h int) canvas.State {
	s := canvas.Default()
	s.Size = canvas.Size{Width: w, Height: h}
	return s
}

func TestRenderSizesSurface(t *testing.T) {
	c := New(nil)
	s := NewSurface()

	c.Render(s, Snapshot{State: state(300, 400)})
	if got := s.Size(); got != (canvas.Size{Width: 300, Height: 400}) {
		t.Errorf("Size = %+v", got)
	}

	c.Render(s, Snapshot{State: state(10, 10)})
	if got := s.Size(); got != (canvas.Size{Width: 256, Height: 256}) {
		t.Errorf("undersized canvas should be floored, got %+v", got)
	}
}

func TestFills(t *testing.T) {
	c := New(nil)
	s := NewSurface()
	white := color.RGBA{255, 255, 255, 255}

	st := state(256, 256)
	c.Render(s, Snapshot{State: st})
	if got := rgbaAt(s, 10, 10); got != white {
		t.Errorf("blank fill = %v, want white", got)
	}

	st.Fill = canvas.FillDark
	c.Render(s, Snapshot{State: st})
	if got := rgbaAt(s, 128, 0); !closeTo(got, color.RGBA{0x11, 0x11, 0x11, 255}, 2) {
		t.Errorf("dark top = %v, want #111", got)
	}
	if got := rgbaAt(s, 128, 255); !closeTo(got, color.RGBA{0, 0, 0, 255}, 2) {
		t.Errorf("dark bottom = %v, want #000", got)
	}
}

func TestClassicTextureIsSeeded(t *testing.T) {
	st := state(256, 256)
	st.Fill = canvas.FillClassic

	paint := func(c *Compositor) []byte {
		s := NewSurface()
		c.Render(s, Snapshot{State: st})
		return append([]byte(nil), s.Image().Pix...)
	}

	a := paint(New(nil, WithTextureSeed(7)))
	b := paint(New(nil, WithTextureSeed(7)))
	other := paint(New(nil, WithTextureSeed(8)))

	if !bytes.Equal(a, b) {
		t.Error("same seed should produce the same texture")
	}
	if bytes.Equal(a, other) {
		t.Error("different seeds should produce different textures")
	}

	st.Fill = canvas.FillBlank
	if bytes.Equal(a, paint(New(nil, WithTextureSeed(7)))) {
		t.Error("classic texture should differ from blank")
	}
}

func TestTextureDotsStack(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(textureColor)

	fillDot(dc, 1, 1, 1)
	once := dst.RGBAAt(1, 1).R
	fillDot(dc, 1, 1, 1)
	twice := dst.RGBAAt(1, 1).R
	if once >= 255 || twice >= once {
		t.Errorf("one dot = %d, two dots = %d; overlapping dots should darken", once, twice)
	}
}

func TestBackgroundPrecedence(t *testing.T) {
	res := newFakeResources()
	res.images["/templates/blue.png"] = solid(blue, 10, 20)
	res.images["blob:up"] = solid(red, 40, 10)
	c := New(res)
	s := NewSurface()

	st := state(256, 256)
	st.TemplateRef = "/templates/blue.png"
	c.Render(s, Snapshot{State: st})
	if got := rgbaAt(s, 0, 0); !closeTo(got, color.RGBA{0, 0, 255, 255}, 1) {
		t.Errorf("template background corner = %v, want blue", got)
	}

	st.UploadRef = "blob:up"
	c.Render(s, Snapshot{State: st})
	if got := rgbaAt(s, 255, 255); !closeTo(got, color.RGBA{255, 0, 0, 255}, 1) {
		t.Errorf("upload should cover the canvas, corner = %v", got)
	}
}

func TestImageLayer(t *testing.T) {
	res := newFakeResources()
	c := New(res)
	s := NewSurface()

	img := layer.NewImage("sticker.png", "")
	img.Scale = 0.5
	st := state(256, 256)
	st.Layers = layer.List{img}

	// not ready yet: skipped and requested
	c.Render(s, Snapshot{State: st})
	if got := rgbaAt(s, 128, 128); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pending image should not draw, center = %v", got)
	}
	if len(res.requested) == 0 || res.requested[0] != "sticker.png" {
		t.Errorf("requested = %v, want sticker.png", res.requested)
	}

	res.images["sticker.png"] = solid(red, 8, 8)
	c.Render(s, Snapshot{State: st})
	if got := rgbaAt(s, 128, 128); !closeTo(got, color.RGBA{255, 0, 0, 255}, 1) {
		t.Errorf("ready image center = %v, want red", got)
	}
	// 128px square centered: 64..192
	if got := rgbaAt(s, 40, 40); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("outside the sticker = %v, want white", got)
	}
}

func TestFailedImageDrawsNothing(t *testing.T) {
	res := newFakeResources()
	res.failed["broken.png"] = true
	c := New(res)
	s := NewSurface()

	st := state(256, 256)
	st.Layers = layer.List{layer.NewImage("broken.png", "")}
	c.Render(s, Snapshot{State: st})

	if got := rgbaAt(s, 128, 128); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("broken image center = %v, want white", got)
	}
	if len(res.requested) != 0 {
		t.Errorf("failed refs should not be requested again, got %v", res.requested)
	}
}

func TestOpacity(t *testing.T) {
	res := newFakeResources()
	res.images["a.png"] = solid(red, 4, 4)
	c := New(res)
	s := NewSurface()

	img := layer.NewImage("a.png", "")
	img.Opacity = 0.5
	st := state(256, 256)
	st.Layers = layer.List{img}
	c.Render(s, Snapshot{State: st})

	if got := rgbaAt(s, 128, 128); !closeTo(got, color.RGBA{255, 127, 127, 255}, 3) {
		t.Errorf("half opacity red over white = %v", got)
	}

	img.Opacity = 0
	st.Layers = layer.List{img}
	c.Render(s, Snapshot{State: st})
	if got := rgbaAt(s, 128, 128); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("zero opacity should draw nothing, got %v", got)
	}
}

func TestInvisibleLayersAreSkipped(t *testing.T) {
	c := New(nil)

	face := layer.NewFace()
	txt := layer.NewText()
	face.Visible = false
	txt.Visible = false

	empty := NewSurface()
	c.Render(empty, Snapshot{State: state(256, 256)})

	hidden := NewSurface()
	st := state(256, 256)
	st.Layers = layer.List{face, txt}
	c.Render(hidden, Snapshot{State: st, Selected: face.ID})

	if !bytes.Equal(empty.Image().Pix, hidden.Image().Pix) {
		t.Error("invisible layers and their selection must not change the output")
	}
}

func TestFaceAndText(t *testing.T) {
	c := New(nil)
	s := NewSurface()

	st := state(512, 512)
	st.Fill = canvas.FillDark
	face := layer.NewFace()
	st.Layers = layer.List{face}
	c.Render(s, Snapshot{State: st})

	if got := rgbaAt(s, 256, 256); got.R < 200 {
		t.Errorf("face center should be light, got %v", got)
	}

	st.Layers = layer.List{layer.NewText()}
	c.Render(s, Snapshot{State: st})

	var white, black int
	for x := 150; x < 362; x++ {
		px := rgbaAt(s, x, 256)
		if px.R > 240 && px.G > 240 {
			white++
		}
		if px.R < 5 && px.G < 5 && px.B < 5 {
			black++
		}
	}
	if white == 0 {
		t.Error("caption fill should leave white pixels on the center row")
	}
	if black == 0 {
		t.Error("caption stroke should leave black pixels on the center row")
	}
}

func TestSelectionOutline(t *testing.T) {
	res := newFakeResources()
	res.images["a.png"] = solid(red, 4, 4)
	c := New(res)

	img := layer.NewImage("a.png", "")
	img.Scale = 0.5
	st := state(256, 256)
	st.Layers = layer.List{img}

	plain := NewSurface()
	c.Render(plain, Snapshot{State: st})
	selected := NewSurface()
	c.Render(selected, Snapshot{State: st, Selected: img.ID})

	if bytes.Equal(plain.Image().Pix, selected.Image().Pix) {
		t.Fatal("selection should draw an outline")
	}
	// first dash along the top edge starts at the box corner (64,64)
	if got := rgbaAt(selected, 66, 64); got.B < 200 || got.R > 100 {
		t.Errorf("outline pixel = %v, want cyan-ish", got)
	}
}

func TestExport(t *testing.T) {
	res := newFakeResources()
	res.images["a.png"] = solid(red, 4, 4)
	c := New(res)

	img := layer.NewImage("a.png", "")
	st := state(300, 260)
	st.Layers = layer.List{img}

	var buf bytes.Buffer
	if err := c.Export(&buf, st); err != nil {
		t.Fatalf("Export: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 260 {
		t.Errorf("PNG size = %dx%d, want 300x260", cfg.Width, cfg.Height)
	}
}

func TestEncodeEmptySurface(t *testing.T) {
	if err := NewSurface().EncodePNG(&bytes.Buffer{}); err == nil {
		t.Error("encoding an unpainted surface should fail")
	}
}

func TestStrokeOffsets(t *testing.T) {
	if got := strokeOffsets(0.2); got != nil {
		t.Errorf("tiny radius = %v, want none", got)
	}
	for _, o := range strokeOffsets(3) {
		if o[0]*o[0]+o[1]*o[1] > 9 {
			t.Errorf("offset %v outside radius 3", o)
		}
	}
	if len(strokeOffsets(1)) != 4 {
		t.Errorf("radius 1 should give the 4 neighbours, got %v", strokeOffsets(1))
	}
	if got := strokeOffsets(math.NaN()); got != nil {
		t.Errorf("NaN radius = %v, want none", got)
	}
}

// A shared token can carry any numbers. Rendering it must stay bounded by
// the canvas, not by the layer attributes.
func TestRenderHostileToken(t *testing.T) {
	st, err := share.Unmarshal([]byte(`{"width":512,"height":512,"layers":[
		{"id":"t","type":"text","x":0.5,"y":0.1,"text":"HI","fontSize":10000000,"strokePx":10000000},
		{"id":"i","type":"image","x":0.5,"y":0.5,"scale":100000,"src":"https://x/a.png"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	res := newFakeResources()
	res.images["https://x/a.png"] = solid(red, 4, 4)

	s := NewSurface()
	New(res).Render(s, Snapshot{State: st})
	if got := s.Size(); got != (canvas.Size{Width: 512, Height: 512}) {
		t.Errorf("Size = %+v", got)
	}
	if got := rgbaAt(s, 256, 400); !closeTo(got, color.RGBA{255, 0, 0, 255}, 1) {
		t.Errorf("oversized image should cover the canvas, got %v", got)
	}

	huge, err := share.Unmarshal([]byte(`{"width":1e12,"height":100000,"layers":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if huge.Size != (canvas.Size{Width: canvas.MaxDimension, Height: canvas.MaxDimension}) {
		t.Errorf("Size = %+v, want both sides capped at %d", huge.Size, canvas.MaxDimension)
	}
}
