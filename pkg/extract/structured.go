package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	structuredEndpoint = "/general/v0/general"
	healthEndpoint     = "/healthcheck"

	healthTimeout  = 3 * time.Second
	extractTimeout = 5 * time.Minute
)

// StructuredClient talks to a structured-extraction service that returns
// typed document elements (titles, paragraphs, tables) instead of flat text.
type StructuredClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewStructuredClientParams configures a StructuredClient.
type NewStructuredClientParams struct {
	BaseURL string
	APIKey  string
}

// NewStructuredClient creates a client for the structured-extraction service.
func NewStructuredClient(params NewStructuredClientParams) *StructuredClient {
	return &StructuredClient{
		baseURL: strings.TrimRight(params.BaseURL, "/"),
		apiKey:  params.APIKey,
		client:  &http.Client{Timeout: extractTimeout},
	}
}

// Healthy probes the service's health endpoint with a short timeout.
func (c *StructuredClient) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthEndpoint, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

type structuredElement struct {
	Type     string         `json:"type"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Extract uploads the document and converts the service response into a
// Result with structured elements and concatenated text.
func (c *StructuredClient) Extract(ctx context.Context, name string, content []byte) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("files", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}

	fields := map[string]string{
		"strategy":          "auto",
		"languages":         "eng,deu",
		"ocr_enabled":       "true",
		"extract_tables":    "true",
		"chunking_strategy": "",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+structuredEndpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("unstructured-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("extraction service returned %d: %s",
			resp.StatusCode, bytes.TrimSpace(raw))
	}

	var elements []structuredElement
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	return resultFromElements(elements), nil
}

func resultFromElements(elements []structuredElement) *Result {
	result := &Result{
		Elements: make([]Element, 0, len(elements)),
		Metadata: map[string]any{},
	}

	pages := 0
	var text strings.Builder
	for _, el := range elements {
		result.Elements = append(result.Elements, Element{
			Type:     ElementType(el.Type),
			Text:     el.Text,
			Metadata: el.Metadata,
		})
		if el.Text != "" {
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(el.Text)
		}
		if n, ok := pageNumber(el.Metadata); ok && n > pages {
			pages = n
		}
	}

	result.Text = text.String()
	result.Pages = pages
	return result
}

func pageNumber(metadata map[string]any) (int, bool) {
	raw, ok := metadata["page_number"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
