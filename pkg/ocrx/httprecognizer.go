package ocrx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/saiteja-tally/taggo/pkg/logx"
)

// HTTPRecognizer posts region crops to a remote recognition service as
// multipart PNG uploads.
type HTTPRecognizer struct {
	endpoint string
	client   *http.Client
	log      *logx.Logger
}

// NewHTTPRecognizer builds a recognizer against the given endpoint. A nil
// client gets a 30 second timeout default.
func NewHTTPRecognizer(endpoint string, client *http.Client, log *logx.Logger) *HTTPRecognizer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logx.GetDefaultLogger()
	}
	return &HTTPRecognizer{endpoint: endpoint, client: client, log: log}
}

// Recognize uploads the crop and decodes the service's text response.
func (r *HTTPRecognizer) Recognize(ctx context.Context, crop image.Image) (Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "crop.png")
	if err != nil {
		return Result{}, err
	}
	if err := png.Encode(part, crop); err != nil {
		return Result{}, fmt.Errorf("encode crop: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("recognition service returned %s", resp.Status)
	}

	var payload struct {
		Text string  `json:"text"`
		Conf float64 `json:"conf"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("decode recognition response: %w", err)
	}
	return Result{Text: payload.Text, Conf: payload.Conf}, nil
}
