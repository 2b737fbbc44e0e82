package extractor

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean folds compatibility characters that PDF producers emit (non-breaking
// spaces, ligatures, full-width digits) and drops invisible format characters
// such as zero-width spaces, so labels and values match plain ASCII rules.
func Clean(s string) string {
	t := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cf)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Plain treats the document as UTF-8 text.
type Plain struct{}

// ExtractText returns the cleaned text, or "" for non-UTF-8 input.
func (Plain) ExtractText(data []byte) string {
	if !utf8.Valid(data) {
		return ""
	}
	return Clean(string(data))
}

var pdfMagic = []byte("%PDF-")

// Auto routes PDF documents to the PDF extractor and everything else to
// Plain.
type Auto struct {
	PDF *PDF
}

// ExtractText sniffs the PDF header and dispatches accordingly.
func (a Auto) ExtractText(data []byte) string {
	if IsPDF(data) {
		if a.PDF == nil {
			return (&PDF{}).ExtractText(data)
		}
		return a.PDF.ExtractText(data)
	}
	return Plain{}.ExtractText(data)
}

// IsPDF reports whether data starts with the PDF header, ignoring leading
// whitespace.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\x00"), pdfMagic)
}
