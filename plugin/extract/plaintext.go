package extract

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"
)

// extractPlainText returns the bytes verbatim; they must be valid UTF-8.
func extractPlainText(_ context.Context, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	if !utf8.Valid(raw) {
		return "", &DecodeError{Offset: firstInvalidUTF8(raw)}
	}
	return string(raw), nil
}

func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
