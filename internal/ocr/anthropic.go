package ocr

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/doc-extractor/internal/cost"
	"github.com/sells-group/doc-extractor/pkg/anthropic"
)

const (
	providerAnthropic      = "anthropic"
	defaultAnthropicModel  = "claude-sonnet-4-5-20250929"
	defaultAnthropicTokens = 8192
)

const transcribeSystem = "You are an OCR engine. Output only the text that appears in the attached document, " +
	"in reading order, preserving line breaks. Separate pages with a blank line. " +
	"Do not describe, summarize or add commentary. If there is no text, output nothing."

// AnthropicOCR transcribes PDFs and images with a Claude model.
type AnthropicOCR struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int64
}

// NewAnthropicOCR wraps an Anthropic client. If model is empty, the default is used.
func NewAnthropicOCR(client anthropic.Client, apiKey, model string) *AnthropicOCR {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicOCR{
		client:    client,
		apiKey:    apiKey,
		model:     model,
		maxTokens: defaultAnthropicTokens,
	}
}

// Recognize sends the document in a single message and returns the text
// blocks of the reply. A reply cut off at the token limit is Truncated.
func (a *AnthropicOCR) Recognize(ctx context.Context, content []byte, mimeType string) (*Recognition, error) {
	if a.apiKey == "" {
		return nil, ErrMissingCredential
	}

	temperature := 0.0
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      transcribeSystem,
		Temperature: &temperature,
		Messages: []anthropic.Message{{
			Role:        "user",
			Content:     "Transcribe this document.",
			Attachments: []anthropic.Attachment{{MediaType: mimeType, Data: content}},
		}},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return nil, &StatusError{
				Provider:   providerAnthropic,
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
			}
		}
		return nil, eris.Wrap(err, "ocr: anthropic call")
	}

	var blocks []string
	for _, b := range resp.Content {
		if b.Type == "text" && b.Text != "" {
			blocks = append(blocks, b.Text)
		}
	}

	model := resp.Model
	if model == "" {
		model = a.model
	}
	return &Recognition{
		Blocks:   blocks,
		External: true,
		Usage: cost.Usage{
			Model:        model,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
		Truncated: resp.StopReason == "max_tokens",
	}, nil
}
