// Package media decodes uploaded images and extracts their text with OCR.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	// Register decoders beyond the stdlib png/jpeg/gif set.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Recognizer turns an encoded raster image into text.
type Recognizer interface {
	Recognize(ctx context.Context, r io.Reader) (string, error)
}

// OCRConfig holds configuration for the tesseract engine.
type OCRConfig struct {
	Bin         string // Path to tesseract binary
	Languages   string // tesseract -l value, e.g. "eng" or "eng+deu"
	PageSegMode int    // tesseract --psm value
	MaxPixels   int    // images above width*height are rejected before decoding
}

// Tesseract runs the local tesseract binary on decoded images.
type Tesseract struct {
	config *OCRConfig
}

// NewTesseract creates a tesseract recognizer, filling unset fields with defaults.
func NewTesseract(config *OCRConfig) *Tesseract {
	if config.Bin == "" {
		config.Bin = "tesseract"
	}
	if config.Languages == "" {
		config.Languages = "eng"
	}
	if config.PageSegMode == 0 {
		config.PageSegMode = 3 // fully automatic page segmentation
	}
	if config.MaxPixels == 0 {
		config.MaxPixels = 50_000_000
	}
	return &Tesseract{config: config}
}

// Recognize decodes the image, normalises orientation and pipes it to tesseract as PNG.
func (t *Tesseract) Recognize(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width*cfg.Height > t.config.MaxPixels {
		return "", fmt.Errorf("image too large: %dx%d %s", cfg.Width, cfg.Height, format)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	var png bytes.Buffer
	if err := imaging.Encode(&png, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}

	return t.run(ctx, &png)
}

func (t *Tesseract) run(ctx context.Context, stdin io.Reader) (string, error) {
	cmd := exec.CommandContext(ctx, t.config.Bin,
		"stdin", "stdout",
		"-l", t.config.Languages,
		"--psm", strconv.Itoa(t.config.PageSegMode),
	)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("tesseract failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract failed: %w", err)
	}

	return string(output), nil
}
