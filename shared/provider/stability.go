package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const DefaultStabilityURL = "https://api.stability.ai/v2beta/stable-image/generate/core"

const defaultImagePrompt = "An empty image"

// StabilityProvider generates JPEG images with the Stability core endpoint.
type StabilityProvider struct {
	apiKey string
	url    string
	client *http.Client
}

func NewStabilityProvider(apiKey, url string, client *http.Client) *StabilityProvider {
	if url == "" {
		url = DefaultStabilityURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	return &StabilityProvider{apiKey: apiKey, url: url, client: client}
}

// Configured reports whether an API key is present.
func (p *StabilityProvider) Configured() bool {
	return p.apiKey != ""
}

// GenerateImage returns the generated image as a data:image/jpeg;base64 URI.
func (p *StabilityProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("stability: %w", ErrMissingAPIKey)
	}
	if prompt == "" {
		prompt = defaultImagePrompt
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("prompt", prompt); err != nil {
		return "", fmt.Errorf("write prompt field: %w", err)
	}
	if err := form.WriteField("output_format", "jpeg"); err != nil {
		return "", fmt.Errorf("write output_format field: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &body)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "image/*")
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamError("stability", resp)
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read image: %v", ErrUpstream, err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image), nil
}
