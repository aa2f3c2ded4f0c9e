// Package pipeline wires the full extraction flow: load, preprocess,
// recognize, classify, extract. It is the surface the web service layer and
// the CLI both consume. Each invocation is isolated, so one Pipeline is safe
// to share across concurrent requests.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mealocr/pkg/extract"
	"mealocr/pkg/ocr"
)

// Config tunes one Pipeline. Zero values mean defaults.
type Config struct {
	// TesseractCmd optionally overrides where the OCR engine binary lives.
	TesseractCmd string
	// Languages passed to the engine, default ["eng"].
	Languages []string
	// ConfidenceThreshold is advisory metadata attached to every result,
	// default 0.7. It never gates fields.
	ConfidenceThreshold float64
	// Timeout bounds each per-page recognition call; 0 means no bound.
	Timeout time.Duration
	// Binarize switches the preprocessor to its aggressive thresholding path.
	Binarize bool
	// ReferenceDate anchors year-less dates like "05/12" in recognized text.
	// Zero means the year at extraction time; set it to make results a pure
	// function of the input bytes.
	ReferenceDate time.Time
	// Engine overrides the Tesseract engine, used by tests to pin OCR output.
	Engine ocr.Engine
	Logger zerolog.Logger
}

type Pipeline struct {
	cfg    Config
	engine ocr.Engine
	pre    ocr.Preprocessor
	ex     *extract.Extractor
	log    zerolog.Logger
}

// New builds a Pipeline. When no engine override is given, the Tesseract
// install is probed up front so a missing engine surfaces here, before any
// document is accepted.
func New(cfg Config) (*Pipeline, error) {
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.7
	}
	engine := cfg.Engine
	if engine == nil {
		var err error
		engine, err = ocr.NewTesseractEngine(ocr.TesseractConfig{Cmd: cfg.TesseractCmd, Languages: cfg.Languages})
		if err != nil {
			return nil, err
		}
	}
	ex := extract.NewExtractor(cfg.Logger)
	ex.Ref = cfg.ReferenceDate
	return &Pipeline{
		cfg:    cfg,
		engine: engine,
		pre:    ocr.Preprocessor{Binarize: cfg.Binarize},
		ex:     ex,
		log:    cfg.Logger,
	}, nil
}

// Close releases the engine.
func (p *Pipeline) Close() error { return p.engine.Close() }

// Extract runs one request through the pipeline. The request's
// ConfidenceThreshold, when non-zero, overrides the pipeline default for this
// invocation only; a TesseractCmd override builds a one-off engine for this
// call, released before Extract returns.
func (p *Pipeline) Extract(ctx context.Context, req ocr.ExtractionRequest) (*extract.ExtractedReceipt, error) {
	doc, err := ocr.LoadDocument(req.Data, req.Type)
	if err != nil {
		return nil, err
	}
	engine := p.engine
	if req.TesseractCmd != "" && p.cfg.Engine == nil && req.TesseractCmd != p.cfg.TesseractCmd {
		e, err := ocr.NewTesseractEngine(ocr.TesseractConfig{Cmd: req.TesseractCmd, Languages: p.cfg.Languages})
		if err != nil {
			return nil, err
		}
		defer e.Close()
		engine = e
	}
	threshold := req.ConfidenceThreshold
	if threshold == 0 {
		threshold = p.cfg.ConfidenceThreshold
	}
	return p.extractDocument(ctx, doc, engine, threshold)
}

// ExtractFile runs the pipeline on a document on disk.
func (p *Pipeline) ExtractFile(ctx context.Context, path string) (*extract.ExtractedReceipt, error) {
	doc, err := ocr.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ExtractDocument(ctx, doc)
}

// ExtractBytes runs the pipeline on an in-memory document. declared may be
// TypeUnknown, in which case the type is sniffed from content; unsupported
// content fails before the engine is ever invoked.
func (p *Pipeline) ExtractBytes(ctx context.Context, data []byte, declared ocr.FileType) (*extract.ExtractedReceipt, error) {
	doc, err := ocr.LoadDocument(data, declared)
	if err != nil {
		return nil, err
	}
	return p.ExtractDocument(ctx, doc)
}

// ExtractDocument recognizes and extracts an already-loaded document. Pages
// with a usable text layer skip OCR; the rest are preprocessed and
// recognized one by one, in page order.
func (p *Pipeline) ExtractDocument(ctx context.Context, doc *ocr.Document) (*extract.ExtractedReceipt, error) {
	return p.extractDocument(ctx, doc, p.engine, p.cfg.ConfidenceThreshold)
}

func (p *Pipeline) extractDocument(ctx context.Context, doc *ocr.Document, engine ocr.Engine, threshold float64) (*extract.ExtractedReceipt, error) {
	var sb strings.Builder
	for _, page := range doc.Pages {
		if sb.Len() > 0 {
			sb.WriteString("\n\f\n")
		}
		if page.Text != "" {
			p.log.Debug().Int("page", page.Index).Str("method", "pdf-text").Msg("using embedded text layer")
			sb.WriteString(page.Text)
			continue
		}
		rec, err := p.recognizePage(ctx, engine, page)
		if err != nil {
			return nil, err
		}
		p.log.Debug().
			Int("page", page.Index).
			Str("method", "ocr").
			Float64("word_confidence", rec.MeanWordConfidence()).
			Msg("page recognized")
		sb.WriteString(rec.Text)
	}
	return p.ex.Extract(sb.String(), threshold)
}

func (p *Pipeline) recognizePage(ctx context.Context, engine ocr.Engine, page ocr.Page) (ocr.RawRecognition, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	rec, err := engine.Recognize(ctx, p.pre.Prepare(page.Image, page.Index))
	if err != nil {
		return ocr.RawRecognition{}, err
	}
	p.log.Debug().Int("page", page.Index).Dur("took", time.Since(start)).Msg("engine call complete")
	return rec, nil
}
