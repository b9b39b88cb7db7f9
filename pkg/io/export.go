package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/share"
)

// WriteJSON encodes state as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(state canvas.State, w io.Writer) error {
	data, err := MarshalJSON(state)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// MarshalJSON returns the indented state document with a trailing newline.
func MarshalJSON(state canvas.State) ([]byte, error) {
	raw, err := share.Marshal(state)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ExportJSON writes state to a JSON file at path.
func ExportJSON(state canvas.State, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(state, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
