package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/geometry"
	"github.com/matzehuels/memeforge/pkg/layer"
)

func inspectState() canvas.State {
	st := canvas.Default()
	face := layer.NewFace()
	face.ID = "face_1"
	sticker := layer.NewImage("/predefined/pic1.png", "pic1")
	sticker.ID = "img_1"
	sticker.Visible = false
	sticker.Rotation = 45
	st.Layers = st.Layers.Add(face).Add(sticker)
	return st
}

func TestLayerRows(t *testing.T) {
	st := inspectState()
	rows := layerRows(st, geometry.New(nil))

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	face, sticker := rows[0], rows[1]
	if face[1] != "face_1" || face[2] != string(layer.KindFace) || face[4] != "yes" {
		t.Errorf("face row = %v", face)
	}
	if sticker[1] != "img_1" || sticker[4] != "no" || sticker[7] != "45°" {
		t.Errorf("sticker row = %v", sticker)
	}
	if face[9] == "n/a" {
		t.Errorf("face box missing: %v", face)
	}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    geometry.Point
		wantErr bool
	}{
		{"10,20", geometry.Point{X: 10, Y: 20}, false},
		{" 1.5 , 2 ", geometry.Point{X: 1.5, Y: 2}, false},
		{"10", geometry.Point{}, true},
		{"a,b", geometry.Point{}, true},
		{"", geometry.Point{}, true},
	}
	for _, tt := range tests {
		got, err := parsePoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePoint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriteHit(t *testing.T) {
	st := inspectState()
	geo := geometry.New(nil)

	var buf bytes.Buffer
	if err := writeHit(&buf, st, geo, geometry.Point{X: 512, Y: 512}); err != nil {
		t.Fatal(err)
	}
	// the hidden sticker is on top but must not be hit
	if !strings.Contains(buf.String(), "face_1") {
		t.Errorf("hit output = %q, want face_1", buf.String())
	}

	buf.Reset()
	if err := writeHit(&buf, canvas.Default(), geo, geometry.Point{X: 5, Y: 5}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "nothing") {
		t.Errorf("miss output = %q", buf.String())
	}
}

func TestInspectCommand(t *testing.T) {
	c := newTestCLI(t)
	src := stateFile(t, inspectState())

	out, err := runCLI(t, c, "inspect", src)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"1024x1024", "face_1", "img_1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, c, "inspect", src, "--at", "512,512")
	if err != nil {
		t.Fatalf("inspect --at: %v", err)
	}
	if !strings.Contains(out, "face_1") {
		t.Errorf("--at output = %q", out)
	}

	if _, err := runCLI(t, c, "inspect", src, "--at", "middle"); err == nil {
		t.Error("expected an error for a bad point")
	}
}
