package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements Engine using the gosseract client.
type Tesseract struct {
	clientFactory func() *gosseract.Client
}

// NewTesseract constructs a Tesseract-backed OCR engine.
func NewTesseract() *Tesseract {
	return &Tesseract{clientFactory: gosseract.NewClient}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize runs OCR over a rendered page bitmap. The image is enhanced
// for recognition (grayscale, contrast, sharpen) before being handed to
// the engine.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	enhanced := enhanceForOCR(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, enhanced); err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}

	client := t.clientFactory()
	defer client.Close()

	if lang != "" {
		if err := client.SetLanguage(lang); err != nil {
			return "", fmt.Errorf("set ocr language %q: %w", lang, err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("load page image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}

// enhanceForOCR applies a short enhancement chain that makes scanned pages
// easier to recognize: grayscale for contrast, then contrast and sharpen.
func enhanceForOCR(src image.Image) image.Image {
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 20)
	return imaging.Sharpen(img, 1.0)
}
