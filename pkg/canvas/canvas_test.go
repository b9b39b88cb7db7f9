package canvas

import (
	"reflect"
	"testing"

	"github.com/matzehuels/memeforge/pkg/layer"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1024", 1024},
		{" 2048 ", 2048},
		{"1600.7", 1600},
		{"100", MinDimension},
		{"-5", MinDimension},
		{"", MinDimension},
		{"abc", MinDimension},
		{"NaN", MinDimension},
		{"9000", MaxDimension},
		{"1e300", MaxDimension},
		{"Inf", MaxDimension},
	}

	for _, tt := range tests {
		if got := ParseDimension(tt.input); got != tt.want {
			t.Errorf("ParseDimension(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestSize(t *testing.T) {
	s := Size{Width: 2048, Height: 1024}
	if s.Min() != 1024 {
		t.Errorf("Min() = %v, want 1024", s.Min())
	}
	if s.ScaleFactor() != 1 {
		t.Errorf("ScaleFactor() = %v, want 1", s.ScaleFactor())
	}

	clamped := Size{Width: 10, Height: 300}.Clamp()
	if clamped != (Size{Width: MinDimension, Height: 300}) {
		t.Errorf("Clamp() = %+v", clamped)
	}
	clamped = Size{Width: 1 << 30, Height: MaxDimension + 1}.Clamp()
	if clamped != (Size{Width: MaxDimension, Height: MaxDimension}) {
		t.Errorf("Clamp() = %+v, want both sides capped", clamped)
	}
}

func TestPresets(t *testing.T) {
	p, ok := LookupPreset("9:16")
	if !ok || p.Size != (Size{Width: 1080, Height: 1920}) {
		t.Errorf("LookupPreset(9:16) = %+v, %v", p, ok)
	}
	if _, ok := LookupPreset("4:3"); ok {
		t.Error("LookupPreset(4:3) should not exist")
	}
}

func TestBackgroundPrecedence(t *testing.T) {
	s := Default()
	if s.BackgroundSource() != SourceNone || s.ActiveBackground() != "" {
		t.Fatalf("default background = %q (%s)", s.ActiveBackground(), s.BackgroundSource())
	}

	s.TemplateRef = "/templates/paper.jpg"
	if s.ActiveBackground() != "/templates/paper.jpg" || s.BackgroundSource() != SourceTemplate {
		t.Errorf("template background = %q (%s)", s.ActiveBackground(), s.BackgroundSource())
	}

	s.UploadRef = "blob:abc"
	if s.ActiveBackground() != "blob:abc" || s.BackgroundSource() != SourceUpload {
		t.Errorf("upload should win, got %q (%s)", s.ActiveBackground(), s.BackgroundSource())
	}

	s.UploadRef = ""
	if s.ActiveBackground() != "/templates/paper.jpg" {
		t.Errorf("clearing upload should revert to template, got %q", s.ActiveBackground())
	}
}

func TestRefs(t *testing.T) {
	hidden := layer.NewImage("hidden.png", "")
	hidden.Visible = false
	s := Default()
	s.TemplateRef = "/templates/black.jpg"
	s.Layers = layer.List{layer.NewImage("a.png", ""), hidden, layer.NewImage("/templates/black.jpg", "")}

	want := []string{"/templates/black.jpg", "a.png"}
	if got := s.Refs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Refs() = %v, want %v", got, want)
	}
	if s.References("hidden.png") {
		t.Error("hidden layer ref should not count as referenced")
	}
	if !s.References("a.png") {
		t.Error("a.png should be referenced")
	}
	if s.References("") {
		t.Error("empty ref is never referenced")
	}
}

func TestNormalize(t *testing.T) {
	s := State{Size: Size{Width: 1, Height: 5000}, Fill: "neon"}.Normalize()
	if s.Size != (Size{Width: MinDimension, Height: 5000}) {
		t.Errorf("Normalize size = %+v", s.Size)
	}
	if s.Fill != FillBlank {
		t.Errorf("Normalize fill = %q, want blank", s.Fill)
	}
}
