package io

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/matzehuels/memeforge/pkg/canvas"
	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/share"
)

// maxStateBytes bounds state files; real ones are a few kilobytes.
const maxStateBytes = 8 << 20

// ReadJSON decodes a state document from r.
//
// Unknown layer types and malformed JSON are INVALID_FORMAT errors. The
// returned state is normalized. ReadJSON does not close r.
func ReadJSON(r io.Reader) (canvas.State, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxStateBytes+1))
	if err != nil {
		return canvas.State{}, fmt.Errorf("read: %w", err)
	}
	if len(data) > maxStateBytes {
		return canvas.State{}, errs.New(errs.ErrCodeTooLarge, "state exceeds %d bytes", maxStateBytes)
	}
	st, err := share.Unmarshal(data)
	if err != nil {
		return canvas.State{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode state")
	}
	return st, nil
}

// ImportJSON reads the state file at path.
func ImportJSON(path string) (canvas.State, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return canvas.State{}, errs.Wrap(errs.ErrCodeNotFound, err, "state file %s", path)
	}
	if err != nil {
		return canvas.State{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	st, err := ReadJSON(f)
	if err != nil {
		return canvas.State{}, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// SourceKind says how a source argument was interpreted.
type SourceKind string

const (
	SourceFile  SourceKind = "file"
	SourceLink  SourceKind = "link"
	SourceToken SourceKind = "token"
	SourceStdin SourceKind = "stdin"
)

// ReadSource loads a state from a state file path, "-" for stdin, a share
// link or a bare token. Existing files win over the other spellings.
func ReadSource(arg string, stdin io.Reader) (canvas.State, SourceKind, error) {
	arg = strings.TrimSpace(arg)
	if arg == "-" {
		st, err := ReadJSON(stdin)
		return st, SourceStdin, err
	}
	// tokens can exceed name limits, so any stat failure means "not a file"
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		st, err := ImportJSON(arg)
		return st, SourceFile, err
	}
	if strings.HasSuffix(strings.ToLower(arg), ".json") {
		return canvas.State{}, SourceFile, fmt.Errorf("open %s: %w", arg, fs.ErrNotExist)
	}

	kind := SourceToken
	if strings.Contains(arg, "#") || strings.Contains(arg, "://") {
		kind = SourceLink
	}
	st, err := share.DecodeLink(arg)
	return st, kind, err
}
