package extract

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrBinaryContent is returned for bytes that are neither UTF-8 nor text in
// the fallback charset.
var ErrBinaryContent = errors.New("decode: content looks binary")

const defaultFallbackEncoding = "windows-1252"

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decoder turns DirectRead bytes into text: strict UTF-8 first, then a
// permissive single-byte fallback.
type Decoder struct {
	name     string
	fallback encoding.Encoding
}

// NewDecoder looks up the fallback charset by its WHATWG name or label
// (e.g. "windows-1252", "latin1", "iso-8859-15").
func NewDecoder(fallback string) (*Decoder, error) {
	if fallback == "" {
		fallback = defaultFallbackEncoding
	}
	enc, err := htmlindex.Get(fallback)
	if err != nil {
		return nil, eris.Wrapf(err, "decode: unknown fallback encoding %q", fallback)
	}
	name, _ := htmlindex.Name(enc)
	return &Decoder{name: name, fallback: enc}, nil
}

// Name returns the canonical name of the fallback charset.
func (d *Decoder) Name() string {
	return d.name
}

// Decode returns data as text. Valid UTF-8 is returned unchanged apart from a
// leading BOM. UTF-16 with a BOM is transcoded.
func (d *Decoder) Decode(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		out, _, err := transform.Bytes(unicode.BOMOverride(d.fallback.NewDecoder()), data)
		if err != nil {
			return "", eris.Wrap(err, "decode: utf-16")
		}
		return string(out), nil
	}

	if utf8.Valid(data) {
		return string(data), nil
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrBinaryContent
	}

	out, _, err := transform.Bytes(d.fallback.NewDecoder(), data)
	if err != nil {
		return "", eris.Wrapf(err, "decode: %s", d.name)
	}
	return string(out), nil
}
