// Package ocrtesseract recognizes region crops with a local tesseract engine,
// for deployments without a remote recognition service.
package ocrtesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/saiteja-tally/taggo/pkg/ocrx"
)

// Recognizer wraps one gosseract client. The client is not safe for
// concurrent use, and neither is Recognizer.
type Recognizer struct {
	client *gosseract.Client
}

// New creates a tesseract-backed recognizer for the given languages,
// defaulting to English.
func New(languages ...string) (*Recognizer, error) {
	client := gosseract.NewClient()
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set tesseract languages: %w", err)
	}
	return &Recognizer{client: client}, nil
}

// Recognize runs tesseract over the crop.
func (r *Recognizer) Recognize(ctx context.Context, crop image.Image) (ocrx.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocrx.Result{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return ocrx.Result{}, fmt.Errorf("encode crop: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return ocrx.Result{}, err
	}

	text, err := r.client.Text()
	if err != nil {
		return ocrx.Result{}, err
	}
	return ocrx.Result{Text: text}, nil
}

// Close releases the tesseract engine.
func (r *Recognizer) Close() error {
	return r.client.Close()
}
