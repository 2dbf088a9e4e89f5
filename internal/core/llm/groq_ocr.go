package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tenderbharat/docvector/internal/core"
)

// GroqOCR extracts text from page images through Groq's vision
// chat-completions endpoint.
type GroqOCR struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
}

func NewGroqOCR(apiURL, apiKey, model string, timeout time.Duration) (*GroqOCR, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}
	return &GroqOCR{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
	}, nil
}

// ExtractText sends the JPEG as a data URL next to the extraction prompt and
// returns the cleaned transcription.
func (g *GroqOCR) ExtractText(ctx context.Context, imageBytes []byte, prompt string) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes)

	req := chatRequest{
		Model: g.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURLPart{URL: dataURL}},
			},
		}},
		Temperature:         0.3,
		MaxCompletionTokens: 4096,
	}

	content, err := postChat(ctx, g.httpClient, g.apiURL, g.apiKey, req)
	if err != nil {
		return "", fmt.Errorf("groq ocr: %w", err)
	}
	return strings.TrimSpace(content), nil
}

// postChat performs one chat-completions round trip and returns the first
// choice's content.
func postChat(ctx context.Context, client *http.Client, apiURL, apiKey string, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrProviderRefused, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w (status %d)", ErrEmptyResponse, resp.StatusCode)
	}
	return parsed.Choices[0].Message.Content, nil
}

var _ core.OCRProvider = (*GroqOCR)(nil)
