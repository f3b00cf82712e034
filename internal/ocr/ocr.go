// Package ocr defines the boundary to the OCR engine so the extraction
// pipeline can be backed by a local Tesseract install or stubbed in tests.
package ocr

import (
	"context"
	"image"
)

// Engine is the OCR provider contract: one page bitmap in, recognized text out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, lang string) (string, error)
}
