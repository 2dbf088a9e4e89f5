package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tenderbharat/docvector/internal/core"
)

// DeepSeekTranslator translates OCR output through DeepSeek's
// chat-completions endpoint.
type DeepSeekTranslator struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
}

func NewDeepSeekTranslator(apiURL, apiKey, model string, timeout time.Duration) (*DeepSeekTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY not set")
	}
	return &DeepSeekTranslator{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
	}, nil
}

// Translate wraps the page text in the translation prompt. Temperature 0:
// the output must track the input, not paraphrase it.
func (d *DeepSeekTranslator) Translate(ctx context.Context, text string, prompt string) (string, error) {
	req := chatRequest{
		Model: d.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a tender consultant."},
			{Role: "user", Content: fmt.Sprintf("%s\n\nText to translate:\n%s", prompt, text)},
		},
		Temperature: 0.0,
	}

	content, err := postChat(ctx, d.httpClient, d.apiURL, d.apiKey, req)
	if err != nil {
		return "", fmt.Errorf("deepseek translate: %w", err)
	}
	return CleanLLMOutput(content), nil
}

var _ core.Translator = (*DeepSeekTranslator)(nil)
