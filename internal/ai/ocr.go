package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"
)

const ocrTimeout = 30 * time.Second

// OCRClient talks to the external OCR service over HTTP.
type OCRClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOCRClient creates a client for the OCR service at baseURL.
func NewOCRClient(baseURL string) *OCRClient {
	return &OCRClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// ExtractText sends a receipt image to the OCR service and returns the
// recognized text with its confidence. The bytes must decode as PNG or JPEG.
func (c *OCRClient) ExtractText(ctx context.Context, img []byte) (string, float64, error) {
	if _, _, err := image.Decode(bytes.NewReader(img)); err != nil {
		return "", 0, fmt.Errorf("not a decodable image: %w", err)
	}

	ocrCtx, cancel := context.WithTimeout(ctx, ocrTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ocrCtx, http.MethodPost, c.baseURL+"/v1/ocr", bytes.NewReader(img))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("ocr service connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("ocr service error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", 0, fmt.Errorf("failed to decode ocr response: %w", err)
	}
	return result.Text, result.Confidence, nil
}
