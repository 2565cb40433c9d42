// Package extract converts uploaded documents into plain text.
//
// Extraction is dispatched on the declared content type through a table
// keyed by Kind. Unknown content types never reach an extractor.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/hrygo/keypoints/plugin/media"
)

// Kind classifies a declared content type.
type Kind int

const (
	Unknown Kind = iota
	PDF
	DOCX
	PlainText
	Image
)

// String returns the metric/log label of the kind.
func (k Kind) String() string {
	switch k {
	case PDF:
		return "pdf"
	case DOCX:
		return "docx"
	case PlainText:
		return "text"
	case Image:
		return "image"
	default:
		return "unknown"
	}
}

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// Classify maps a declared content type to a Kind. Media type parameters are ignored.
func Classify(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case mediaType == mimePDF:
		return PDF
	case mediaType == mimeDOCX:
		return DOCX
	case mediaType == mimeText:
		return PlainText
	case strings.HasPrefix(mediaType, "image/"):
		return Image
	default:
		return Unknown
	}
}

// ErrUnsupportedType is returned for content types outside the recognised kinds.
var ErrUnsupportedType = errors.New("unsupported file type")

// DecodeError reports plain text that is not valid UTF-8.
type DecodeError struct {
	Offset int // byte offset of the first invalid sequence
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("'utf-8' codec can't decode byte at position %d: invalid UTF-8", e.Offset)
}

// OCRError reports a failure to decode an image or run OCR on it.
type OCRError struct {
	Err error
}

func (e *OCRError) Error() string {
	return fmt.Sprintf("Error processing image: %v", e.Err)
}

func (e *OCRError) Unwrap() error { return e.Err }

// ExtractionError wraps a failure from a document parsing library.
type ExtractionError struct {
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Func extracts text from a single forward read of r.
type Func func(ctx context.Context, r io.Reader) (string, error)

// Extractor dispatches extraction by Kind.
type Extractor struct {
	funcs map[Kind]Func
}

// New builds the dispatch table for all supported kinds. ocr serves image uploads.
func New(ocr media.Recognizer) *Extractor {
	return &Extractor{
		funcs: map[Kind]Func{
			PDF:       extractPDF,
			DOCX:      extractDOCX,
			PlainText: extractPlainText,
			Image:     imageExtractor(ocr),
		},
	}
}

// Extract classifies contentType and runs the matching extractor on r.
// Returns ErrUnsupportedType without reading r when no extractor matches.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, contentType string) (string, Kind, error) {
	kind := Classify(contentType)
	fn, ok := e.funcs[kind]
	if !ok {
		return "", kind, ErrUnsupportedType
	}

	text, err := fn(ctx, r)
	if err != nil {
		return "", kind, err
	}
	return text, kind, nil
}
