package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the text layer of PDF documents. Failures never escape:
// ExtractText returns "" when no readable text can be recovered.
type PDF struct {
	Logger *slog.Logger
	// Pdftotext enables the poppler-utils fallback when the Go library
	// cannot decode the document.
	Pdftotext bool
	// PdftotextTimeout bounds each external command. Zero means 30s.
	PdftotextTimeout time.Duration
}

// NewPDF returns a PDF extractor that logs to logger.
func NewPDF(logger *slog.Logger, pdftotext bool) *PDF {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDF{Logger: logger, Pdftotext: pdftotext}
}

// ExtractText returns the document's page texts joined by blank lines,
// skipping pages with no text. It tries the structured library first and
// pdftotext last.
func (e *PDF) ExtractText(data []byte) string {
	logger := e.logger()
	if len(data) == 0 {
		logger.Debug("extractor.pdf.empty_input")
		return ""
	}

	pages, libErr := extractWithLibrary(data)
	if libErr == nil && isReadableText(pages) {
		return Clean(joinPages(pages))
	}
	if libErr != nil {
		logger.Debug("extractor.pdf.library_failed", "err", libErr)
	}

	if e.Pdftotext {
		popplerPages, err := e.extractWithPdftotext(data)
		if err == nil && isReadableText(popplerPages) {
			return Clean(joinPages(popplerPages))
		}
		if err != nil {
			logger.Debug("extractor.pdf.pdftotext_failed", "err", err)
		}
	}

	// Keep whatever the library produced even if it fails the readability
	// heuristics; the rule sets simply find nothing in garbage.
	if libErr == nil && totalTextLen(pages) > 0 {
		logger.Warn("extractor.pdf.low_quality_text", "chars", totalTextLen(pages))
		return Clean(joinPages(pages))
	}

	logger.Warn("extractor.pdf.no_text", "bytes", len(data))
	return ""
}

func (e *PDF) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func joinPages(pages []string) string {
	var kept []string
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// textQuality returns the ratio of basic ASCII readable characters to total
// characters. Returns 0.0-1.0.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()'\"£$€%&@#!?+=*", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear in virtually all card statements.
var commonWords = []string{
	"card", "account", "balance", "payment", "statement", "due",
	"total", "amount", "credit", "minimum", "period", "date",
	"purchases", "interest", "fees", "page",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText requires >50 chars, >60% readable ASCII characters, and at
// least one common statement word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

// extractWithPdftotext writes the document to a temp file and runs the
// external pdftotext command from poppler-utils page by page.
func (e *PDF) extractWithPdftotext(data []byte) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	timeout := e.PdftotextTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	numPages := pdfinfoPageCount(ctx, tmp.Name())
	var pages []string
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", n, "-l", n, tmp.Name(), "-").Output()
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) > 0 {
		return pages, nil
	}

	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}
	if text := strings.TrimSpace(string(out)); text != "" {
		return []string{text}, nil
	}
	return nil, fmt.Errorf("pdftotext produced no output")
}

// pdfinfoPageCount asks pdfinfo for the page count, defaulting to 1.
func pdfinfoPageCount(ctx context.Context, path string) int {
	out, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 1
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

// extractWithLibrary uses the ledongthuc/pdf library with multiple methods.
func extractWithLibrary(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, openErr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return nil, openErr
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Method 1: GetTextByRow keeps labels next to their values.
	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 2: coordinate-based row reconstruction.
	pages = extractByContent(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 3: per-page plain text with the page font map.
	pages = extractByPagePlainText(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 4: whole-document plain text.
	if plain := extractByReaderPlainText(r); isReadableText([]string{plain}) {
		return []string{plain}, nil
	}

	return pages, nil
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			pieces := make([]rowPiece, 0, len(row.Content))
			for _, t := range row.Content {
				pieces = append(pieces, rowPiece{x: t.X, w: t.W, s: t.S})
			}
			if line := rowText(pieces); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups text pieces by Y coordinate to rebuild rows, then
// orders each row by X.
func extractByContent(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rowMap := make(map[int][]rowPiece)
		for _, t := range content.Text {
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], rowPiece{x: t.X, w: t.W, s: t.S})
		}

		// PDF Y grows bottom-to-top.
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			if line := rowText(rowMap[y]); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// rowPiece is one positioned run of text on a printed line.
type rowPiece struct {
	x, w float64
	s    string
}

// Gaps, in points, that separate words. gapWithWidth applies when a piece
// knows its advance width; gapWithoutWidth compares start positions only.
const (
	gapWithWidth    = 1.5
	gapWithoutWidth = 15
)

// rowText joins the pieces of one line left to right. A space goes in only
// where the page leaves a visible gap, and a currency sign or mask star is
// never split from the digits after it, so "$523.10" and "****1234" come
// out as single tokens even when the PDF positions every glyph separately.
func rowText(pieces []rowPiece) string {
	sorted := make([]rowPiece, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p.s) != "" {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].x < sorted[b].x
	})

	var sb strings.Builder
	for j, p := range sorted {
		if j > 0 && wordGap(sorted[j-1], p) && !gluesToNext(sb.String(), p.s) {
			sb.WriteString(" ")
		}
		sb.WriteString(p.s)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func wordGap(prev, cur rowPiece) bool {
	if prev.w > 0 {
		return cur.x-(prev.x+prev.w) > gapWithWidth
	}
	return cur.x-prev.x > gapWithoutWidth
}

// gluesToNext reports whether next continues a "$", "£", "€" or "*" prefix.
func gluesToNext(built, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(built)
	if !strings.ContainsRune("$£€*", last) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(next)
	return unicode.IsDigit(first) || first == '*'
}

func extractByPagePlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
