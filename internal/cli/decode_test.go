package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/memeforge/pkg/canvas"
	memeio "github.com/matzehuels/memeforge/pkg/io"
	"github.com/matzehuels/memeforge/pkg/share"
)

func TestDecodeCommand(t *testing.T) {
	want := captionState()
	link, err := share.Link("https://memes.example/", want)
	if err != nil {
		t.Fatal(err)
	}
	token, err := share.Encode(want)
	if err != nil {
		t.Fatal(err)
	}

	for name, arg := range map[string]string{"link": link, "token": token} {
		t.Run(name, func(t *testing.T) {
			c := newTestCLI(t)
			out, err := runCLI(t, c, "decode", arg)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			got, err := memeio.ReadJSON(strings.NewReader(out))
			if err != nil {
				t.Fatalf("ReadJSON: %v\n%s", err, out)
			}
			if got.Fill != want.Fill || len(got.Layers) != 1 {
				t.Errorf("decoded %+v", got)
			}
		})
	}
}

func TestDecodeCommandMalformed(t *testing.T) {
	bad := "https://memes.example/#s=%%%not-base64"

	t.Run("default canvas", func(t *testing.T) {
		c := newTestCLI(t)
		out, err := runCLI(t, c, "decode", bad)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		got, err := memeio.ReadJSON(strings.NewReader(out))
		if err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		def := canvas.Default()
		if got.Size != def.Size || len(got.Layers) != 0 {
			t.Errorf("got %+v, want the default canvas", got)
		}
	})

	t.Run("strict", func(t *testing.T) {
		c := newTestCLI(t)
		if _, err := runCLI(t, c, "decode", "--strict", bad); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestDecodeCommandToFile(t *testing.T) {
	c := newTestCLI(t)
	token, err := share.Encode(captionState())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out", "decoded.json")

	out, err := runCLI(t, c, "decode", token, "-o", path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != "" {
		t.Errorf("state should go to the file, stdout got %q", out)
	}
	st, err := memeio.ImportJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Layers) != 1 {
		t.Errorf("layers = %d, want 1", len(st.Layers))
	}
}
