package extract

import (
	"context"
	"errors"
	"io"

	"github.com/hrygo/keypoints/plugin/media"
)

func imageExtractor(ocr media.Recognizer) Func {
	return func(ctx context.Context, r io.Reader) (string, error) {
		if ocr == nil {
			return "", &OCRError{Err: errors.New("OCR engine not configured")}
		}
		text, err := ocr.Recognize(ctx, r)
		if err != nil {
			return "", &OCRError{Err: err}
		}
		return text, nil
	}
}
