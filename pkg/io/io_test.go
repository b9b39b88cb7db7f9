package io

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/memeforge/pkg/canvas"
	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/layer"
	"github.com/matzehuels/memeforge/pkg/share"
)

func sample() canvas.State {
	st := canvas.Default()
	st.Size = canvas.Size{Width: 1800, Height: 600}
	st.Fill = canvas.FillDark
	st.TemplateRef = "/templates/halftone.jpg"
	st.Layers = layer.List{layer.NewFace(), layer.NewText(), layer.NewImage("/predefined/pic2.png", "pic2")}
	return st
}

func TestRoundTrip(t *testing.T) {
	want := sample()
	var buf bytes.Buffer
	if err := WriteJSON(want, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"width\": 1800") {
		t.Errorf("output should be indented:\n%s", buf.String())
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meme.json")
	want := sample()
	if err := ExportJSON(want, path); err != nil {
		t.Fatal(err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("file round trip mismatch")
	}

	_, err = ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, fs.ErrNotExist) || !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("missing file err = %v, want NOT_FOUND wrapping fs.ErrNotExist", err)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":    `{"width":`,
		"unknown type": `{"layers":[{"id":"a","type":"gif"}]}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(in))
			if !errs.Is(err, errs.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestReadSource(t *testing.T) {
	want := sample()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := ExportJSON(want, path); err != nil {
		t.Fatal(err)
	}
	token, err := share.Encode(want)
	if err != nil {
		t.Fatal(err)
	}
	link, _ := share.Link("https://memes.example/", want)
	var stdin bytes.Buffer
	_ = WriteJSON(want, &stdin)

	tests := []struct {
		name string
		arg  string
		kind SourceKind
	}{
		{"file", path, SourceFile},
		{"token", token, SourceToken},
		{"link", link, SourceLink},
		{"stdin", "-", SourceStdin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, kind, err := ReadSource(tt.arg, &stdin)
			if err != nil {
				t.Fatalf("ReadSource: %v", err)
			}
			if kind != tt.kind {
				t.Errorf("kind = %s, want %s", kind, tt.kind)
			}
			if !reflect.DeepEqual(got, want) {
				t.Error("state mismatch")
			}
		})
	}

	if _, kind, err := ReadSource(filepath.Join(dir, "nope.json"), nil); kind != SourceFile || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing json file = %s, %v", kind, err)
	}
	if _, _, err := ReadSource("not a token!", nil); !errs.Is(err, errs.ErrCodeInvalidToken) {
		t.Errorf("garbage err = %v, want INVALID_TOKEN", err)
	}
}

func TestBlobRefsNotWritten(t *testing.T) {
	st := sample()
	st.UploadRef = "blob:abc"
	data, err := MarshalJSON(st)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte("blob:")) {
		t.Errorf("state file leaks a blob ref:\n%s", data)
	}
}
