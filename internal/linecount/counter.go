package linecount

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw file bytes to UTF-8 text. Invalid sequences become
// U+FFFD; the call never fails on malformed input.
func Decode(raw []byte) string {
	// Handles a UTF-8 or UTF-16 BOM and falls back to UTF-8 without one.
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("\uFFFD")))
	}
	return string(out)
}

// CountLines returns the number of '\n' separators plus one. An empty text
// counts as one line.
func CountLines(text string) int {
	n := 1
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			n++
		}
	}
	return n
}
