package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealocr/pkg/extract"
	"mealocr/pkg/ocr"
)

const pizzaText = "Joe's Pizza\n" +
	"123 Main St\n" +
	"Large Pizza ... $18.00\n" +
	"Soft Drink ... $2.50\n" +
	"Subtotal $20.50\n" +
	"Tax $1.64\n" +
	"Total $22.14"

// fakeEngine pins OCR output so pipeline tests are independent of a real
// Tesseract install.
type fakeEngine struct {
	mu    sync.Mutex
	text  string
	delay time.Duration
	calls int
	pages []int
}

func (f *fakeEngine) Recognize(ctx context.Context, page ocr.PreparedPage) (ocr.RawRecognition, error) {
	f.mu.Lock()
	f.calls++
	f.pages = append(f.pages, page.Index)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ocr.RawRecognition{}, fmt.Errorf("%w: page %d: %v", ocr.ErrRecognitionTimeout, page.Index, ctx.Err())
		}
	}
	return ocr.RawRecognition{Text: f.text, Page: page.Index}, nil
}

func (f *fakeEngine) Close() error { return nil }

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(60, 40, color.NRGBA{255, 255, 255, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestPipeline(t *testing.T, eng ocr.Engine) *Pipeline {
	t.Helper()
	p, err := New(Config{Engine: eng, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return p
}

func TestExtractBytesReceipt(t *testing.T) {
	eng := &fakeEngine{text: pizzaText}
	p := newTestPipeline(t, eng)

	r, err := p.ExtractBytes(context.Background(), testPNG(t), ocr.TypeUnknown)
	require.NoError(t, err)
	require.NotNil(t, r.RestaurantName)
	assert.Equal(t, "Joe's Pizza", *r.RestaurantName)
	assert.Equal(t, 1, eng.calls)
	assert.InDelta(t, 0.7, r.ConfidenceThreshold, 1e-9, "default advisory threshold attached")
}

func TestExtractRequestThresholdOverride(t *testing.T) {
	eng := &fakeEngine{text: pizzaText}
	p := newTestPipeline(t, eng)
	data := testPNG(t)

	r, err := p.Extract(context.Background(), ocr.ExtractionRequest{Data: data, Type: ocr.TypePNG, ConfidenceThreshold: 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, r.ConfidenceThreshold, 1e-9, "request threshold wins for this call")

	r, err = p.Extract(context.Background(), ocr.ExtractionRequest{Data: data})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, r.ConfidenceThreshold, 1e-9, "zero threshold falls back to the pipeline default")
	assert.Equal(t, 2, eng.calls)
}

func TestUnsupportedTypeFailsBeforeEngine(t *testing.T) {
	eng := &fakeEngine{text: pizzaText}
	p := newTestPipeline(t, eng)

	_, err := p.ExtractBytes(context.Background(), []byte("PK\x03\x04 docx-ish bytes"), ocr.TypeUnknown)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ocr.ErrUnsupportedFormat))
	assert.Equal(t, 0, eng.calls, "engine must never run for rejected input")
}

func TestPipelineIdempotent(t *testing.T) {
	eng := &fakeEngine{text: pizzaText}
	p := newTestPipeline(t, eng)
	data := testPNG(t)

	a, err := p.ExtractBytes(context.Background(), data, ocr.TypePNG)
	require.NoError(t, err)
	b, err := p.ExtractBytes(context.Background(), data, ocr.TypePNG)
	require.NoError(t, err)

	aj, err := extract.FormatJSON(a)
	require.NoError(t, err)
	bj, err := extract.FormatJSON(b)
	require.NoError(t, err)
	assert.Equal(t, aj, bj, "same input bytes must yield an identical record")
}

func TestTextLayerPageSkipsOCR(t *testing.T) {
	eng := &fakeEngine{text: "Page Two Diner\nTotal $9.99"}
	p := newTestPipeline(t, eng)

	// page 0 carries an embedded text layer, page 1 needs recognition
	doc := &ocr.Document{Pages: []ocr.Page{
		{Index: 0, Text: "Cafe Luna\n2024-03-05\nEspresso $3.00\nTotal $3.00"},
		{Index: 1, Image: imaging.New(60, 40, color.NRGBA{255, 255, 255, 255})},
	}}
	r, err := p.ExtractDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, 1, eng.calls, "exactly one OCR call, for the rasterized page")
	assert.Equal(t, []int{1}, eng.pages)
	assert.Contains(t, r.RawText, "Cafe Luna", "text-layer page used verbatim")
	assert.Contains(t, r.RawText, "Page Two Diner")
	assert.Less(t, bytes.Index([]byte(r.RawText), []byte("Cafe Luna")),
		bytes.Index([]byte(r.RawText), []byte("Page Two Diner")), "page order preserved")
}

func TestRecognitionTimeout(t *testing.T) {
	eng := &fakeEngine{text: pizzaText, delay: time.Second}
	p, err := New(Config{Engine: eng, Timeout: 20 * time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = p.ExtractBytes(context.Background(), testPNG(t), ocr.TypePNG)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ocr.ErrRecognitionTimeout))
	assert.Contains(t, err.Error(), "page 0")
}

func TestEmptyRecognitionIsEmptyDocument(t *testing.T) {
	eng := &fakeEngine{text: "   \n  "}
	p := newTestPipeline(t, eng)

	_, err := p.ExtractBytes(context.Background(), testPNG(t), ocr.TypePNG)
	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrEmptyDocument))
}

func TestExtractFileNotFound(t *testing.T) {
	p := newTestPipeline(t, &fakeEngine{})
	_, err := p.ExtractFile(context.Background(), "does/not/exist.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ocr.ErrFileNotFound))
}
