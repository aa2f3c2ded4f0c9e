package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"runtime"

	"github.com/otiai10/gosseract/v2"
)

// Engine converts one prepared page into a RawRecognition. Implementations
// map a context deadline to ErrRecognitionTimeout and engine-internal
// failures to ErrRecognitionFailed, both carrying the page index. A timed-out
// call must still release its per-call engine resources; when the underlying
// engine call cannot be interrupted, release happens asynchronously as soon
// as that call returns, never later.
type Engine interface {
	Recognize(ctx context.Context, page PreparedPage) (RawRecognition, error)
	Close() error
}

// TesseractConfig configures the Tesseract-backed engine.
type TesseractConfig struct {
	// Cmd is an optional explicit path to the tesseract binary. When empty
	// the binary is discovered on PATH.
	Cmd string
	// Languages passed to the engine, default ["eng"].
	Languages []string
}

// TesseractEngine recognizes pages through gosseract. A fresh client is
// created per call, so one engine is safe for concurrent use.
type TesseractEngine struct {
	cfg TesseractConfig
}

// NewTesseractEngine verifies that a Tesseract install is reachable and
// returns the engine. A missing install fails with ErrEngineNotFound and
// platform install guidance; retrying will not help until it is installed.
func NewTesseractEngine(cfg TesseractConfig) (*TesseractEngine, error) {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if err := probeTesseract(cfg.Cmd); err != nil {
		return nil, err
	}
	return &TesseractEngine{cfg: cfg}, nil
}

func probeTesseract(cmd string) error {
	if cmd != "" {
		if _, err := os.Stat(cmd); err != nil {
			return fmt.Errorf("%w: %q does not exist; %s", ErrEngineNotFound, cmd, installHint())
		}
		return nil
	}
	if _, err := exec.LookPath("tesseract"); err != nil {
		return fmt.Errorf("%w: tesseract is not on PATH; %s", ErrEngineNotFound, installHint())
	}
	return nil
}

func installHint() string {
	switch runtime.GOOS {
	case "darwin":
		return "install it with `brew install tesseract`"
	case "windows":
		return "install it from the UB Mannheim builds (https://github.com/UB-Mannheim/tesseract/wiki) and point --tesseract-cmd at tesseract.exe"
	default:
		return "install it with `sudo apt-get install tesseract-ocr` (Debian/Ubuntu) or `sudo dnf install tesseract` (Fedora)"
	}
}

// Recognize runs OCR on one page. The page image is handed to the engine as
// an in-memory PNG; no temp files are written.
func (e *TesseractEngine) Recognize(ctx context.Context, page PreparedPage) (RawRecognition, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, page.Image); err != nil {
		return RawRecognition{}, fmt.Errorf("%w: page %d: encode: %v", ErrRecognitionFailed, page.Index, err)
	}

	type result struct {
		rec RawRecognition
		err error
	}
	done := make(chan result, 1)
	go func() {
		// The worker owns the client; it is closed here on every path so a
		// timed-out call still releases its engine resources.
		client := gosseract.NewClient()
		defer client.Close()
		_ = client.SetLanguage(e.cfg.Languages...)
		_ = client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK)
		_ = client.SetVariable("preserve_interword_spaces", "1")
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			done <- result{err: err}
			return
		}
		text, err := client.Text()
		if err != nil {
			done <- result{err: err}
			return
		}
		rec := RawRecognition{Text: text, Page: page.Index}
		if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
			for _, b := range boxes {
				rec.Words = append(rec.Words, Word{Text: b.Word, Box: b.Box, Confidence: b.Confidence / 100})
			}
		}
		done <- result{rec: rec}
	}()

	select {
	case <-ctx.Done():
		// Tesseract calls cannot be interrupted mid-recognition; the worker
		// above still owns the client and closes it the moment the blocked
		// call returns, while the timeout propagates to the caller now.
		return RawRecognition{}, fmt.Errorf("%w: page %d: %v", ErrRecognitionTimeout, page.Index, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return RawRecognition{}, fmt.Errorf("%w: page %d: %v", ErrRecognitionFailed, page.Index, r.err)
		}
		return r.rec, nil
	}
}

// Close implements Engine. Clients are per-call, so there is nothing to free.
func (e *TesseractEngine) Close() error { return nil }
