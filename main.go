package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/insightdelivered/card-statement-parser/internal/api"
	"github.com/insightdelivered/card-statement-parser/internal/config"
	"github.com/insightdelivered/card-statement-parser/internal/extractor"
	"github.com/insightdelivered/card-statement-parser/internal/metrics"
	"github.com/insightdelivered/card-statement-parser/internal/models"
	"github.com/insightdelivered/card-statement-parser/internal/parser"
	"github.com/insightdelivered/card-statement-parser/internal/pipeline"
	"github.com/insightdelivered/card-statement-parser/internal/tracing"
	"github.com/insightdelivered/card-statement-parser/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	issuerFlag := flag.String("issuer", "", "Issuer: amex, chase, citi, bofa, hsbc, generic (auto-detected if omitted)")
	outputFlag := flag.String("output", "statements.csv", "Output CSV file path (\"-\" for stdout, empty to skip)")
	xlsxFlag := flag.String("xlsx", "", "Also write an Excel workbook to this path")
	headerFlag := flag.Bool("header", true, "Include the column header row in CSV")
	detailsFlag := flag.Bool("details", false, "Print every field and the raw text snippet per file")
	serveFlag := flag.Bool("serve", false, "Run the HTTP upload API instead of processing files")
	envFlag := flag.String("env", ".env", "Path to a .env file (ignored if missing)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Credit Card Statement Field Extractor
by Insight Delivered (QEA AutoLens)

Pulls the card's last 4 digits, card variant, statement period, payment
due date and total amount due out of credit card statement PDFs from
American Express, Chase, Citi, Bank of America and HSBC. Statements from
other issuers are handled with generic rules.

Usage:
  card-statement-parser [flags] <statement.pdf> [statement2.pdf ...]
  card-statement-parser -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect issuers and write statements.csv
  card-statement-parser jan.pdf feb.pdf mar.pdf

  # Force the Chase rules and print to stdout
  card-statement-parser -issuer=chase -output=- statement.pdf

  # Show every field plus the text the rules ran against
  card-statement-parser -details -output= statement.pdf

  # Already-extracted text works too
  card-statement-parser statement.txt

  # Start the upload API (see SERVER_* settings)
  card-statement-parser -serve
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("card-statement-parser v%s\n", version)
		os.Exit(0)
	}

	if *helpFlag || (flag.NArg() == 0 && !*serveFlag) {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load(*envFlag)
	if err != nil {
		fatalf("Configuration error: %v\n", err)
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithSnippetLength(cfg.Extraction.SnippetLength),
		pipeline.WithWorkers(cfg.Extraction.Workers),
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.NewProvider(os.Stderr, cfg.Tracing.ServiceName)
		if err != nil {
			fatalf("Tracing setup failed: %v\n", err)
		}
		otel.SetTracerProvider(tp)
		opts = append(opts, pipeline.WithTracerProvider(tp))
		defer func() {
			if err := tracing.Shutdown(tp, 5*time.Second); err != nil {
				logger.Warn("tracing.shutdown.failed", "error", err)
			}
		}()
	}

	// Validate issuer flag if provided
	if *issuerFlag != "" {
		p, err := parser.New(*issuerFlag)
		if err != nil {
			fatalf("%v. Supported: amex, chase, citi, bofa, hsbc, generic\n", err)
		}
		opts = append(opts, pipeline.WithIssuer(models.Issuer(p.IssuerName())))
	}

	text := extractor.Auto{PDF: extractor.NewPDF(logger, cfg.Extraction.PdftotextFallback)}

	if *serveFlag {
		if cfg.Server.MetricsEnabled {
			opts = append(opts, pipeline.WithMetrics(metrics.NewExtraction(nil)))
		}
		if err := serve(cfg, logger, pipeline.New(text, opts...)); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	p := pipeline.New(text, opts...)
	recs := processFiles(p, flag.Args())

	for _, rec := range recs {
		printSummary(rec, *detailsFlag)
	}

	if err := writeOutputs(recs, *outputFlag, *xlsxFlag, *headerFlag); err != nil {
		fatalf("%v\n", err)
	}
}

// processFiles reads every input and parses them as one batch. Unreadable
// files still produce a record so the output has one row per input.
func processFiles(p *pipeline.Pipeline, paths []string) []models.FieldRecord {
	docs := make([]pipeline.Document, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		}
		docs[i] = pipeline.Document{Filename: filepath.Base(path), Data: data}
	}
	return p.ParseBatch(context.Background(), docs)
}

func printSummary(rec models.FieldRecord, details bool) {
	fmt.Printf("Processing: %s\n", rec.Filename)
	fmt.Printf("  Issuer: %s\n", rec.Issuer)

	fields := rec.Fields()
	found := 0
	for _, name := range models.FieldNames {
		if fields[name].IsPresent() {
			found++
		}
	}
	fmt.Printf("  Found %d of %d field(s)\n", found, len(models.FieldNames))

	if found == 0 {
		fmt.Println("  Warning: No fields found. The statement text may be missing or in an unexpected layout.")
		fmt.Println("  Try specifying the issuer explicitly with -issuer if auto-detection was used.")
	}

	if !details {
		return
	}
	for _, name := range models.FieldNames {
		v, ok := fields[name].Get()
		if !ok {
			v = "(not found)"
		}
		fmt.Printf("  %s: %s\n", name, v)
	}
	snippet := rec.RawSnippet
	if snippet == "" {
		snippet = "(no text)"
	}
	fmt.Printf("  Raw text:\n    %s\n", snippet)
}

func writeOutputs(recs []models.FieldRecord, csvPath, xlsxPath string, includeHeader bool) error {
	csvWriter := &writer.CSVWriter{IncludeHeader: includeHeader}
	switch csvPath {
	case "":
	case "-":
		if err := csvWriter.Write(os.Stdout, recs); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
	default:
		if err := csvWriter.WriteToFile(csvPath, recs); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
		fmt.Printf("Output: %s\n", csvPath)
	}

	if xlsxPath != "" {
		if err := (&writer.XLSXWriter{}).WriteToFile(xlsxPath, recs); err != nil {
			return fmt.Errorf("XLSX write failed: %w", err)
		}
		fmt.Printf("Output: %s\n", xlsxPath)
	}
	return nil
}

func serve(cfg *config.Config, logger *slog.Logger, p *pipeline.Pipeline) error {
	h := &api.Handler{Pipeline: p, Logger: logger, Version: version}
	app := api.NewApp(h, cfg.Server, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.start", "addr", cfg.Server.Addr(), "version", version)
		errCh <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
