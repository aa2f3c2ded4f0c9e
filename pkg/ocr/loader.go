package ocr

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

const (
	// minTextLayerChars is the minimum number of significant characters for a
	// PDF page's embedded text to be trusted over rasterize+OCR.
	minTextLayerChars = 20

	// rasterDPI is the render resolution for PDF pages without a text layer.
	rasterDPI = 200
)

// Page is one page of a loaded document. Exactly one of Text or Image is set:
// Text when the PDF text layer was usable (OCR is skipped for that page),
// Image when the page needs recognition.
type Page struct {
	Index int
	Text  string
	Image image.Image
}

// Document is an ordered sequence of loaded pages.
type Document struct {
	Pages []Page
}

// LoadDocument decodes raw bytes into pages. The declared type wins when set;
// otherwise the type is sniffed from content. A direct image is a single page.
func LoadDocument(data []byte, declared FileType) (*Document, error) {
	typ := declared
	if typ == TypeUnknown {
		var err error
		if typ, err = DetectType(data); err != nil {
			return nil, err
		}
	}
	switch typ {
	case TypePDF, TypeJPEG, TypePNG, TypeGIF, TypeBMP, TypeTIFF:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, typ)
	}
	if typ == TypePDF {
		return loadPDF(data)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s image: %v", ErrDocumentParse, typ, err)
	}
	return &Document{Pages: []Page{{Index: 0, Image: img}}}, nil
}

// LoadFile reads and decodes a document from disk. The extension provides the
// declared type; unknown extensions fall back to content sniffing.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDocumentParse, path, err)
	}
	doc, err := LoadDocument(data, TypeForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func loadPDF(data []byte) (*Document, error) {
	fdoc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrDocumentParse, err)
	}
	defer fdoc.Close()

	doc := &Document{}
	for i := 0; i < fdoc.NumPage(); i++ {
		text, err := fdoc.Text(i)
		if err == nil && significantChars(text) >= minTextLayerChars {
			doc.Pages = append(doc.Pages, Page{Index: i, Text: text})
			continue
		}
		img, err := fdoc.ImageDPI(i, rasterDPI)
		if err != nil {
			return nil, fmt.Errorf("%w: render pdf page %d: %v", ErrDocumentParse, i, err)
		}
		doc.Pages = append(doc.Pages, Page{Index: i, Image: img})
	}
	return doc, nil
}

func significantChars(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\n' && r != '\r' && r != '\t' && r != '\f' {
			n++
		}
	}
	return n
}
