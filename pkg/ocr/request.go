package ocr

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileType identifies the declared or sniffed format of an input document.
type FileType string

const (
	TypeUnknown FileType = ""
	TypePDF     FileType = "pdf"
	TypeJPEG    FileType = "jpeg"
	TypePNG     FileType = "png"
	TypeGIF     FileType = "gif"
	TypeBMP     FileType = "bmp"
	TypeTIFF    FileType = "tiff"
)

// ExtractionRequest carries one document through the pipeline. Immutable;
// built once per invocation.
type ExtractionRequest struct {
	Data                []byte
	Type                FileType // TypeUnknown means sniff from Data
	TesseractCmd        string   // optional engine binary override for this call
	ConfidenceThreshold float64  // advisory, attached to the output; 0 means the pipeline default
}

// PreparedPage is one normalized image ready for OCR.
type PreparedPage struct {
	Image image.Image
	Index int // zero-based page index in the source document
}

// Word is a single recognized word with its position and engine confidence
// scaled to [0,1].
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// RawRecognition is the engine output for one page. Transient; never persisted.
type RawRecognition struct {
	Text  string
	Words []Word
	Page  int
}

// MeanWordConfidence averages per-word engine confidences, or 0 when the
// engine produced none.
func (r RawRecognition) MeanWordConfidence() float64 {
	if len(r.Words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range r.Words {
		sum += w.Confidence
	}
	return sum / float64(len(r.Words))
}

var mimeTypes = map[string]FileType{
	"application/pdf": TypePDF,
	"image/jpeg":      TypeJPEG,
	"image/png":       TypePNG,
	"image/gif":       TypeGIF,
	"image/bmp":       TypeBMP,
	"image/tiff":      TypeTIFF,
}

var extTypes = map[string]FileType{
	".pdf":  TypePDF,
	".jpg":  TypeJPEG,
	".jpeg": TypeJPEG,
	".png":  TypePNG,
	".gif":  TypeGIF,
	".bmp":  TypeBMP,
	".tif":  TypeTIFF,
	".tiff": TypeTIFF,
}

// DetectType sniffs the file type from content. Types outside the supported
// set fail with ErrUnsupportedFormat naming the detected MIME type.
func DetectType(data []byte) (FileType, error) {
	m := mimetype.Detect(data)
	for mt, ft := range mimeTypes {
		if m.Is(mt) {
			return ft, nil
		}
	}
	return TypeUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, m.String())
}

// TypeForPath maps a file extension to a FileType, TypeUnknown when the
// extension is not recognized (content sniffing decides then).
func TypeForPath(path string) FileType {
	return extTypes[strings.ToLower(filepath.Ext(path))]
}
