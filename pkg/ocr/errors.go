package ocr

import "errors"

var (
	// ErrUnsupportedFormat is returned when the input is not one of the
	// supported image formats or a PDF.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileNotFound is returned when the input path does not resolve.
	ErrFileNotFound = errors.New("file not found")

	// ErrDocumentParse is returned when a PDF or image is structurally unreadable.
	ErrDocumentParse = errors.New("document unreadable")

	// ErrEngineNotFound is returned when the Tesseract install cannot be
	// located. The wrapped message carries install guidance for the platform.
	ErrEngineNotFound = errors.New("ocr engine not found")

	// ErrRecognitionFailed is returned when the engine rejected a page.
	ErrRecognitionFailed = errors.New("recognition failed")

	// ErrRecognitionTimeout is returned when a recognition call exceeded the
	// caller-supplied budget.
	ErrRecognitionTimeout = errors.New("recognition timed out")
)
