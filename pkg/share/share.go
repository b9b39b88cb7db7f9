// Package share turns a canvas state into a compact token that fits in a URL
// fragment, and back.
//
// A token is the base64 encoding of the state as JSON:
//
//	{"width":1024,"height":1024,"template":"blank",
//	 "bgTemplateURL":"/templates/paper.jpg","bgUploadURL":"",
//	 "layers":[{"id":"text_1a2b3c4","type":"text",...}]}
//
// Encode uses the standard base64 alphabet with padding. Decode also accepts
// the URL-safe alphabet and unpadded input, since links are often mangled by
// chat clients and shorteners. Tokens carry no integrity protection.
//
// Session-local "blob:" refs cannot be resolved by whoever opens a link, so
// they are dropped on encode.
package share

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"net/url"
	"strings"

	"github.com/matzehuels/memeforge/pkg/canvas"
	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/layer"
)

// FragmentKey is the fragment parameter that carries the token in a link.
const FragmentKey = "s"

// wireState is the JSON shape of a token.
type wireState struct {
	Width         *float64   `json:"width,omitempty"`
	Height        *float64   `json:"height,omitempty"`
	Template      string     `json:"template,omitempty"`
	BgTemplateURL string     `json:"bgTemplateURL,omitempty"`
	BgUploadURL   string     `json:"bgUploadURL,omitempty"`
	Layers        layer.List `json:"layers"`
}

// Encode serializes state into a token.
func Encode(state canvas.State) (string, error) {
	data, err := Marshal(state)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Marshal returns the JSON a token wraps, with session-local refs removed.
func Marshal(state canvas.State) ([]byte, error) {
	state = Portable(state)
	w, h := float64(state.Size.Width), float64(state.Size.Height)
	ws := wireState{
		Width:         &w,
		Height:        &h,
		Template:      string(state.Fill),
		BgTemplateURL: state.TemplateRef,
		BgUploadURL:   state.UploadRef,
		Layers:        state.Layers,
	}
	if ws.Layers == nil {
		ws.Layers = layer.List{}
	}
	data, err := json.Marshal(ws)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode state")
	}
	return data, nil
}

// Portable returns state without session-local refs. Image layers whose
// source is a blob are removed; blob backgrounds are cleared.
func Portable(state canvas.State) canvas.State {
	if isLocal(state.TemplateRef) {
		state.TemplateRef = ""
	}
	if isLocal(state.UploadRef) {
		state.UploadRef = ""
	}
	out := make(layer.List, 0, len(state.Layers))
	for _, l := range state.Layers {
		if img, ok := l.Content.(layer.Image); ok && isLocal(img.Src) {
			continue
		}
		out = append(out, l)
	}
	state.Layers = out
	return state
}

func isLocal(ref string) bool {
	return strings.HasPrefix(ref, errs.SchemeBlob)
}

// Decode parses a token. Malformed input yields an INVALID_TOKEN error.
// The returned state is normalized: sizes below the floor are raised and an
// unknown fill falls back to blank.
func Decode(token string) (canvas.State, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return canvas.State{}, errs.New(errs.ErrCodeInvalidToken, "empty token")
	}
	data, err := decodeBase64(token)
	if err != nil {
		return canvas.State{}, errs.Wrap(errs.ErrCodeInvalidToken, err, "token is not base64")
	}
	return Unmarshal(data)
}

// Unmarshal parses token JSON into a normalized state.
func Unmarshal(data []byte) (canvas.State, error) {
	var ws wireState
	if err := json.Unmarshal(data, &ws); err != nil {
		return canvas.State{}, errs.Wrap(errs.ErrCodeInvalidToken, err, "token is not a valid state")
	}

	st := canvas.Default()
	if ws.Width != nil {
		st.Size.Width = dimension(*ws.Width)
	}
	if ws.Height != nil {
		st.Size.Height = dimension(*ws.Height)
	}
	st.Fill = canvas.Fill(ws.Template)
	st.TemplateRef = ws.BgTemplateURL
	st.UploadRef = ws.BgUploadURL
	st.Layers = ws.Layers
	return st.Normalize(), nil
}

func dimension(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(v)
}

func decodeBase64(token string) ([]byte, error) {
	raw := strings.TrimRight(token, "=")
	if strings.ContainsAny(raw, "-_") {
		return base64.RawURLEncoding.DecodeString(raw)
	}
	return base64.RawStdEncoding.DecodeString(raw)
}

// DecodeOrDefault is Decode for callers that must always get a usable state.
// On failure it returns the default canvas together with the decode error,
// which callers typically log as a warning.
func DecodeOrDefault(token string) (canvas.State, error) {
	st, err := Decode(token)
	if err != nil {
		return canvas.Default(), err
	}
	return st, nil
}

// =============================================================================
// Links
// =============================================================================

// Link returns base with the state token in its fragment: base#s=<token>.
// Any existing fragment on base is replaced.
func Link(base string, state canvas.State) (string, error) {
	token, err := Encode(state)
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return base + "#" + FragmentKey + "=" + token, nil
}

// ParseLink extracts the token from a link's fragment. Input that is not a
// link with an s= fragment is returned unchanged, so a bare token also works.
func ParseLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	i := strings.IndexByte(link, '#')
	if i < 0 {
		if strings.Contains(link, "://") {
			return "", errs.New(errs.ErrCodeInvalidToken, "link has no state fragment")
		}
		return link, nil
	}
	frag := link[i+1:]
	for _, part := range strings.Split(frag, "&") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key != FragmentKey {
			continue
		}
		// padding and '/' are sometimes percent-escaped by link rewriters
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
		if value == "" {
			break
		}
		return value, nil
	}
	return "", errs.New(errs.ErrCodeInvalidToken, "link has no %s= fragment", FragmentKey)
}

// DecodeLink is ParseLink followed by Decode.
func DecodeLink(link string) (canvas.State, error) {
	token, err := ParseLink(link)
	if err != nil {
		return canvas.State{}, err
	}
	return Decode(token)
}
