// Package pipeline turns statement documents into field records:
// extract text, normalize, classify the issuer, run that issuer's rules.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/card-statement-parser/internal/metrics"
	"github.com/insightdelivered/card-statement-parser/internal/models"
	"github.com/insightdelivered/card-statement-parser/internal/parser"
)

// DefaultSnippetLength bounds RawSnippet, in characters.
const DefaultSnippetLength = 1200

const tracerName = "github.com/insightdelivered/card-statement-parser/internal/pipeline"

// TextExtractor produces the textual content of a document. It returns ""
// when the document has no recoverable text; it never fails.
type TextExtractor interface {
	ExtractText(data []byte) string
}

// ExtractorFunc adapts a function to TextExtractor.
type ExtractorFunc func(data []byte) string

func (f ExtractorFunc) ExtractText(data []byte) string {
	return f(data)
}

// Document is one input to ParseBatch.
type Document struct {
	Filename string
	Data     []byte
}

// Pipeline is immutable after New and safe for concurrent use.
type Pipeline struct {
	extractor  TextExtractor
	snippetLen int
	workers    int
	issuer     models.Issuer
	logger     *slog.Logger
	metrics    *metrics.Extraction
	tracer     trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSnippetLength sets how many characters of normalized text RawSnippet keeps.
func WithSnippetLength(n int) Option {
	return func(p *Pipeline) {
		if n >= 0 {
			p.snippetLen = n
		}
	}
}

// WithWorkers bounds how many documents ParseBatch handles at once.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithIssuer skips detection and always applies the given issuer's rules.
func WithIssuer(issuer models.Issuer) Option {
	return func(p *Pipeline) {
		p.issuer = issuer
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Extraction) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTracerProvider sets where spans go. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) {
		if tp != nil {
			p.tracer = tp.Tracer(tracerName)
		}
	}
}

// New builds a pipeline around the text-extraction collaborator.
func New(extractor TextExtractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		snippetLen: DefaultSnippetLength,
		workers:    1,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// With returns a copy of p with opts applied on top of its settings.
func (p *Pipeline) With(opts ...Option) *Pipeline {
	cp := *p
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// ParseStatement extracts the fields of one statement document. It always
// returns a complete record; missing data shows up as absent fields.
func (p *Pipeline) ParseStatement(data []byte, filename string) models.FieldRecord {
	return p.Run(context.Background(), data, filename)
}

// Run is ParseStatement with a context for tracing.
func (p *Pipeline) Run(ctx context.Context, data []byte, filename string) models.FieldRecord {
	ctx, span := p.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("statement.filename", filename),
		attribute.Int("statement.bytes", len(data)),
	))
	defer span.End()

	text := p.extractText(ctx, data, filename)
	return p.parse(ctx, span, text, filename)
}

// ParseText runs the pipeline on text that was already extracted.
func (p *Pipeline) ParseText(ctx context.Context, text, filename string) models.FieldRecord {
	ctx, span := p.tracer.Start(ctx, "pipeline.ParseText", trace.WithAttributes(
		attribute.String("statement.filename", filename),
	))
	defer span.End()

	return p.parse(ctx, span, text, filename)
}

// ParseBatch parses docs concurrently and returns one record per document,
// in input order. A document that fails in any way yields an empty record
// and never affects the others.
func (p *Pipeline) ParseBatch(ctx context.Context, docs []Document) []models.FieldRecord {
	out := make([]models.FieldRecord, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			out[i] = p.safeRun(gctx, doc)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Pipeline) safeRun(ctx context.Context, doc Document) (rec models.FieldRecord) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline.parse.panic", "filename", doc.Filename, "panic", fmt.Sprint(r))
			rec = models.Empty(doc.Filename)
		}
	}()
	return p.Run(ctx, doc.Data, doc.Filename)
}

func (p *Pipeline) extractText(ctx context.Context, data []byte, filename string) string {
	if p.extractor == nil {
		return ""
	}
	_, span := p.tracer.Start(ctx, "pipeline.ExtractText")
	defer span.End()

	text := p.extractor.ExtractText(data)
	span.SetAttributes(attribute.Int("statement.text_chars", utf8.RuneCountInString(text)))
	if text == "" {
		p.logger.Warn("pipeline.extract.empty", "filename", filename, "bytes", len(data))
	}
	return text
}

func (p *Pipeline) parse(ctx context.Context, span trace.Span, text, filename string) models.FieldRecord {
	start := time.Now()
	norm := parser.NormalizeSpaces(text)

	issuer := p.issuer
	if issuer == "" {
		issuer = parser.Detect(norm)
	}

	_, extractSpan := p.tracer.Start(ctx, "pipeline.Extract", trace.WithAttributes(
		attribute.String("statement.issuer", string(issuer)),
	))
	rec := parser.Extract(issuer, norm)
	extractSpan.End()

	rec.Filename = filename
	rec.RawSnippet = truncateRunes(norm, p.snippetLen)

	found := 0
	for _, f := range rec.Fields() {
		if f.IsPresent() {
			found++
		}
	}
	span.SetAttributes(
		attribute.String("statement.issuer", string(rec.Issuer)),
		attribute.Int("statement.fields_found", found),
	)
	if norm == "" {
		span.AddEvent("statement.no_text")
	}

	p.metrics.Observe(rec, norm == "", time.Since(start))
	p.logger.Info("pipeline.parse.ok",
		"filename", filename,
		"issuer", rec.Issuer,
		"fields_found", found,
		"text_chars", utf8.RuneCountInString(norm),
	)
	return rec
}

// truncateRunes returns at most n characters of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
