// Package textenc converts between stored bytes and text using named
// encodings.
//
// Names are WHATWG encoding labels ("utf8", "utf-8", "latin1",
// "utf-16le", "shift_jis", ...), resolved through golang.org/x/text. Storage
// implementations use this package to honor core.ReadOptions.Encoding and
// core.WriteOptions.Encoding.
package textenc

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Lookup resolves an encoding label. An empty name resolves to
// core.DefaultEncoding.
func Lookup(name string) (encoding.Encoding, error) {
	if strings.TrimSpace(name) == "" {
		name = core.DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeUnsupportedEncoding, "unknown encoding %q", name)
	}
	return enc, nil
}

// Decode converts raw bytes to text. UTF-8 input must be valid; a leading
// byte order mark is dropped.
func Decode(name string, data []byte) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}

	if enc == unicode.UTF8 {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", errors.Newf(errors.CodeUnsupportedEncoding, "contents are not valid %s", name)
		}
		return string(data), nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeUnsupportedEncoding, "decode %s", name)
	}
	return string(out), nil
}

// Encode converts text to bytes. It fails if the text contains characters
// the encoding cannot represent.
func Encode(name string, text string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	if enc == unicode.UTF8 {
		return []byte(text), nil
	}

	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeUnsupportedEncoding, "encode %s", name)
	}
	return out, nil
}
