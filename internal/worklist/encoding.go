package worklist

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding names a text encoding a work list can be stored in.
type Encoding string

const (
	EncodingUTF8BOM     Encoding = "utf-8-sig"
	EncodingUTF8        Encoding = "utf-8"
	EncodingShiftJIS    Encoding = "shift_jis" // code page 932
	EncodingWindows1252 Encoding = "windows-1252"
)

// encodingPriority is the order in which encodings are tried when reading.
var encodingPriority = []Encoding{
	EncodingUTF8BOM,
	EncodingUTF8,
	EncodingShiftJIS,
	EncodingWindows1252,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacy returns the x/text codec for a legacy code page, or nil for UTF-8.
func (e Encoding) legacy() encoding.Encoding {
	switch e {
	case EncodingShiftJIS:
		return japanese.ShiftJIS
	case EncodingWindows1252:
		return charmap.Windows1252
	}
	return nil
}

// decode converts raw file bytes to a string using the first encoding in
// priority order that decodes without replacement characters.
func decode(raw []byte) (string, Encoding, error) {
	var tried []string
	for _, enc := range encodingPriority {
		s, ok := decodeAs(raw, enc)
		if ok {
			return s, enc, nil
		}
		tried = append(tried, string(enc))
	}
	return "", "", fmt.Errorf("no supported encoding matched (tried %s)", strings.Join(tried, ", "))
}

func decodeAs(raw []byte, enc Encoding) (string, bool) {
	switch enc {
	case EncodingUTF8BOM:
		if !bytes.HasPrefix(raw, utf8BOM) {
			return "", false
		}
		rest := raw[len(utf8BOM):]
		if !utf8.Valid(rest) {
			return "", false
		}
		return string(rest), true
	case EncodingUTF8:
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}

	codec := enc.legacy()
	if codec == nil {
		return "", false
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), codec.NewDecoder()))
	if err != nil {
		return "", false
	}
	// x/text decoders substitute U+FFFD for invalid sequences instead of failing.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// encode converts s back into enc. It fails when s holds characters the
// target code page cannot represent.
func encode(s string, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingUTF8BOM:
		return append(append([]byte{}, utf8BOM...), s...), nil
	case EncodingUTF8:
		return []byte(s), nil
	}

	codec := enc.legacy()
	if codec == nil {
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
	out, _, err := transform.Bytes(codec.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding as %s: %w", enc, err)
	}
	return out, nil
}
