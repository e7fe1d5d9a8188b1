// Package analysis calls the external package-image analysis service and
// turns its answer into a new-medicine form.
package analysis

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"pharmapos/backend/internal/cache"
	"pharmapos/backend/internal/domain"
)

const (
	SourceImage     = "image"
	SourceGenerated = "generated"

	analyzePath = "/analyze-images/"
	maxResponse = 1 << 20
)

var ErrAnalysisFailed = errors.New("image analysis failed")

// Image is one uploaded package photo.
type Image struct {
	Filename string
	Data     []byte
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.AnalysisCache
	cacheTTL   time.Duration
}

func NewClient(baseURL string, timeout time.Duration, cacheStore cache.AnalysisCache, cacheTTL time.Duration) *Client {
	if cacheStore == nil {
		cacheStore = cache.NoopAnalysisCache{}
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cacheStore,
		cacheTTL:   cacheTTL,
	}
}

// Analyze sends the front image and optional back image to the analysis
// service. Identical uploads are answered from the cache.
func (c *Client) Analyze(ctx context.Context, front Image, back *Image) (Result, bool, error) {
	if len(front.Data) == 0 {
		return Result{}, false, fmt.Errorf("%w: front image is required", ErrAnalysisFailed)
	}

	key := cacheKey(front, back)
	if cached, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return Result{ImageAnalysis: *cached}, true, nil
	} else if err != nil {
		log.Printf("[analysis] WARN: cache lookup failed: %v", err)
	}

	body, contentType, err := encodeImages(front, back)
	if err != nil {
		return Result{}, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, body)
	if err != nil {
		return Result{}, false, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, false, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return Result{}, false, fmt.Errorf("%w: read response: %v", ErrAnalysisFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, false, fmt.Errorf("%w: service returned %d", ErrAnalysisFailed, resp.StatusCode)
	}

	result, err := Parse(payload)
	if err != nil {
		return Result{}, false, err
	}
	if err := c.cache.Set(ctx, key, &result.ImageAnalysis, c.cacheTTL); err != nil {
		log.Printf("[analysis] WARN: cache store failed: %v", err)
	}
	return result, false, nil
}

func encodeImages(front Image, back *Image) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	parts := []struct {
		field string
		image *Image
	}{
		{"front_image", &front},
		{"back_image", back},
	}
	for _, part := range parts {
		if part.image == nil || len(part.image.Data) == 0 {
			continue
		}
		name := part.image.Filename
		if name == "" {
			name = part.field + ".jpg"
		}
		fw, err := writer.CreateFormFile(part.field, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(part.image.Data); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func cacheKey(front Image, back *Image) string {
	h, _ := blake2b.New256(nil)
	h.Write(front.Data)
	h.Write([]byte{0})
	if back != nil {
		h.Write(back.Data)
	}
	return "pharmapos:analysis:" + hex.EncodeToString(h.Sum(nil))
}

// Parse decodes the service response. A top-level "error" key is a failure.
func Parse(payload []byte) (Result, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrAnalysisFailed, err)
	}
	if msg, ok := raw["error"]; ok {
		var text string
		if err := json.Unmarshal(msg, &text); err != nil {
			text = string(msg)
		}
		return Result{}, fmt.Errorf("%w: %s", ErrAnalysisFailed, text)
	}

	fields := make(map[string]domain.AnalysisField, len(raw))
	for key, value := range raw {
		var field struct {
			Value  json.RawMessage `json:"value"`
			Source string          `json:"source"`
		}
		if err := json.Unmarshal(value, &field); err != nil {
			continue
		}
		fields[key] = domain.AnalysisField{Value: scalarText(field.Value), Source: field.Source}
	}
	return Result{ImageAnalysis: domain.ImageAnalysis{Fields: fields}}, nil
}

func scalarText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
