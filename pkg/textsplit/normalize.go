// Package textsplit cleans extracted PDF text and cuts it into overlapping word windows.
package textsplit

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC rather than plain NFC, so ligatures and full-width
// forms from PDFs fold to what users type, then collapses every whitespace
// run to a single space.
// It is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFKC.String(text)), " ")
}
