package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightdelivered/card-statement-parser/internal/config"
	"github.com/insightdelivered/card-statement-parser/internal/models"
	"github.com/insightdelivered/card-statement-parser/internal/parser"
	"github.com/insightdelivered/card-statement-parser/internal/pipeline"
	"github.com/insightdelivered/card-statement-parser/internal/writer"
)

// pageBreak separates pages in client-side extracted text.
const pageBreak = "\n---PAGE_BREAK---\n"

// ParseResponse is the JSON response from the /api/parse endpoint.
type ParseResponse struct {
	Success   bool                 `json:"success"`
	Error     string               `json:"error,omitempty"`
	RequestID string               `json:"requestId,omitempty"`
	Count     int                  `json:"count"`
	Results   []models.FieldRecord `json:"results"`
	CSV       string               `json:"csv,omitempty"`
	Version   string               `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Pipeline *pipeline.Pipeline
	Logger   *slog.Logger
	Version  string
}

// NewApp builds the fiber app with middleware and routes. Metrics are served
// from gatherer when enabled; a nil gatherer uses the default registry.
func NewApp(h *Handler, cfg config.ServerConfig, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "card-statement-parser",
		BodyLimit: cfg.MaxUploadMB << 20,
	})
	app.Use(fiberrecover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	h.Register(app)

	if cfg.MetricsEnabled {
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return app
}

// Register sets up the API routes.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/parse", h.HandleParse)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.Version,
	})
}

// HandleParse accepts one or more statements in the multipart field "file"
// and returns one record per upload. The optional "issuer" field forces a
// rule set. The optional "extractedText" field carries text already
// extracted on the client; when set it is parsed instead of the upload.
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	reqID := uuid.New().String()
	c.Set("X-Request-ID", reqID)
	log := h.logger().With("request_id", reqID)

	form, err := c.MultipartForm()
	if err != nil {
		return h.writeError(c, fiber.StatusBadRequest, reqID, fmt.Sprintf("Failed to parse form: %v", err))
	}

	p := h.Pipeline
	if name := formValue(form, "issuer"); name != "" {
		ip, err := parser.New(name)
		if err != nil {
			return h.writeError(c, fiber.StatusBadRequest, reqID, err.Error())
		}
		p = p.With(pipeline.WithIssuer(models.Issuer(ip.IssuerName())))
	}

	files := form.File["file"]
	var results []models.FieldRecord

	if text := joinPages(formValue(form, "extractedText")); text != "" {
		filename := "extracted.txt"
		if len(files) > 0 {
			filename = files[0].Filename
		}
		results = []models.FieldRecord{p.ParseText(c.UserContext(), text, filename)}
	} else {
		if len(files) == 0 {
			return h.writeError(c, fiber.StatusBadRequest, reqID, "No file uploaded. Use form field 'file'.")
		}
		docs := make([]pipeline.Document, len(files))
		for i, fh := range files {
			data, err := readUpload(fh)
			if err != nil {
				log.Warn("api.upload.read_failed", "filename", fh.Filename, "error", err)
			}
			docs[i] = pipeline.Document{Filename: fh.Filename, Data: data}
		}
		results = p.ParseBatch(c.UserContext(), docs)
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: formValue(form, "header") != "false"}
	if err := csvWriter.Write(&csvBuf, results); err != nil {
		return h.writeError(c, fiber.StatusInternalServerError, reqID, fmt.Sprintf("CSV generation failed: %v", err))
	}

	log.Info("api.parse.ok", "documents", len(results))
	return c.JSON(ParseResponse{
		Success:   true,
		RequestID: reqID,
		Count:     len(results),
		Results:   results,
		CSV:       csvBuf.String(),
		Version:   h.Version,
	})
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) writeError(c *fiber.Ctx, status int, reqID, msg string) error {
	h.logger().Warn("api.parse.rejected", "request_id", reqID, "status", status, "error", msg)
	return c.Status(status).JSON(ParseResponse{
		Success:   false,
		Error:     msg,
		RequestID: reqID,
		Results:   []models.FieldRecord{},
	})
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// joinPages turns page-break separated text into blank-line separated pages,
// dropping empty ones.
func joinPages(text string) string {
	var pages []string
	for _, page := range strings.Split(text, pageBreak) {
		if page = strings.TrimSpace(page); page != "" {
			pages = append(pages, page)
		}
	}
	return strings.Join(pages, "\n\n")
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	return data, nil
}
