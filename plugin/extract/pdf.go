package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the plain text of every page in page order.
// The parser needs random access, so the stream is buffered once.
func extractPDF(_ context.Context, r io.Reader) (text string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			text = ""
			err = &ExtractionError{Kind: PDF, Err: fmt.Errorf("parser panic: %v", p)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Kind: PDF, Err: err}
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &ExtractionError{Kind: PDF, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		b.WriteString(pageText)
	}

	return b.String(), nil
}
