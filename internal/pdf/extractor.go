package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"chatpdf/internal/common"
	"chatpdf/internal/ocr"
	"chatpdf/internal/quality"
)

// Extraction methods recorded per page.
const (
	MethodText = "text"
	MethodOCR  = "ocr"
)

// PageResult is one page's extraction outcome.
type PageResult struct {
	Number int // 1-based
	Text   string
	Method string
	Score  float64
}

// Result is the ordered per-page output for a whole document.
type Result struct {
	Pages []PageResult
}

// Text concatenates the page texts in page order, each prefixed with its
// page label. This is the document text handed to the chat session.
func (r Result) Text() string {
	var b strings.Builder
	for _, p := range r.Pages {
		fmt.Fprintf(&b, "Page %d:\n%s\n", p.Number, p.Text)
	}
	return b.String()
}

// Config controls the per-page OCR decision.
type Config struct {
	UseOCR     bool
	Threshold  float64 // quality score below this triggers OCR
	Resolution int     // render DPI for OCR
	Language   string
}

// Extractor turns a PDF into labeled document text, falling back to OCR on
// pages whose text layer scores below the quality threshold.
type Extractor struct {
	cfg    Config
	scorer *quality.Scorer
	engine ocr.Engine
	open   Opener
	logger *slog.Logger

	// Progress, when set, is called once per page before it is processed.
	Progress func(page, total int)
}

// NewExtractor wires the extractor. A nil engine disables OCR regardless of
// cfg.UseOCR.
func NewExtractor(cfg Config, scorer *quality.Scorer, engine ocr.Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.1
	}
	if cfg.Resolution <= 0 {
		cfg.Resolution = 200
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Extractor{
		cfg:    cfg,
		scorer: scorer,
		engine: engine,
		open:   OpenFitz,
		logger: logger,
	}
}

// ExtractText extracts the whole document and returns the labeled
// concatenation.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	res, err := e.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// Extract processes every page in order. A missing input file is reported
// before any parsing; an unreadable document is fatal; per-page OCR
// failures degrade to the text layer.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	if _, err := os.Stat(path); err != nil {
		return Result{}, common.NewAppError("FILE_NOT_FOUND", fmt.Sprintf("PDF file not found: %s", path), common.ErrNotFound)
	}

	doc, err := e.open(path)
	if err != nil {
		return Result{}, common.WrapError(err, "error processing PDF")
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			e.logger.Warn("close document", "path", path, "error", cerr)
		}
	}()

	total := doc.NumPages()
	res := Result{Pages: make([]PageResult, 0, total)}

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if e.Progress != nil {
			e.Progress(i+1, total)
		}

		text, method := e.extractPage(ctx, doc.Page(i))
		res.Pages = append(res.Pages, PageResult{
			Number: i + 1,
			Text:   text,
			Method: method,
			Score:  e.scorer.Score(text),
		})
		e.logger.Debug("page extracted", "page", i+1, "total", total, "method", method, "chars", len(text))
	}

	return res, nil
}

// extractPage tries the text layer first and substitutes OCR only when the
// layer scores below the threshold and OCR output scores strictly higher.
// OCR trouble is never fatal to the page.
func (e *Extractor) extractPage(ctx context.Context, page Page) (string, string) {
	text, err := page.Text()
	if err != nil {
		e.logger.Warn("text layer extraction failed", "error", err)
		text = ""
	}

	if !e.cfg.UseOCR || e.engine == nil {
		return text, MethodText
	}
	if e.scorer.Score(text) >= e.cfg.Threshold {
		return text, MethodText
	}

	img, err := page.Render(float64(e.cfg.Resolution))
	if err != nil {
		e.logger.Warn("page render failed", "error", err)
		return text, MethodText
	}

	ocrText, err := e.engine.Recognize(ctx, img, e.cfg.Language)
	if err != nil {
		e.logger.Warn("OCR failed", "engine", e.engine.Name(), "error", err)
		return text, MethodText
	}

	if e.scorer.Score(ocrText) > e.scorer.Score(text) {
		return ocrText, MethodOCR
	}
	return text, MethodText
}
