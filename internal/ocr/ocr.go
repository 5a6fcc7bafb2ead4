// Package ocr adapts external text-recognition services to a single
// Recognizer capability. Adapters make exactly one upstream call per
// Recognize and never retry.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/doc-extractor/internal/config"
	"github.com/sells-group/doc-extractor/internal/cost"
	"github.com/sells-group/doc-extractor/internal/resilience"
	"github.com/sells-group/doc-extractor/pkg/anthropic"
	"github.com/sells-group/doc-extractor/pkg/vision"
)

// ErrMissingCredential is returned when a provider needs a credential that is not configured.
var ErrMissingCredential = errors.New("ocr: missing credential")

// Recognizer extracts ordered text blocks from a PDF or image.
type Recognizer interface {
	Recognize(ctx context.Context, content []byte, mimeType string) (*Recognition, error)
}

// Recognition is the outcome of one Recognize call.
type Recognition struct {
	Blocks []string
	// External is true when a remote service was called.
	External bool
	// Usage is what the remote call consumed; zero for local reads.
	Usage cost.Usage
	// Truncated is set when the service read fewer pages than the document has.
	Truncated bool
}

// StatusError carries the upstream status of a failed recognition.
type StatusError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ocr: %s returned %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("ocr: %s returned %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Transient reports whether the upstream status is worth retrying.
func (e *StatusError) Transient() bool {
	return resilience.IsTransientHTTPStatus(e.StatusCode)
}

// credentialKeys names the config key holding each provider's credential.
var credentialKeys = map[string]string{
	"google":    "vision.api_key",
	"mistral":   "mistral.api_key",
	"anthropic": "anthropic.api_key",
	"local":     "",
}

// NewRecognizer creates a Recognizer based on config.
func NewRecognizer(cfg *config.Config) (Recognizer, error) {
	provider := cfg.OCR.Provider
	if provider == "" {
		provider = "google"
	}
	key, ok := credentialKeys[provider]
	if !ok {
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.OCR.Provider)
	}
	if key != "" && cfg.OCRCredential() == "" {
		return nil, eris.Wrapf(ErrMissingCredential, "ocr: %s provider requires %s", provider, key)
	}

	timeout := cfg.OCR.Timeout()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	switch provider {
	case "mistral":
		m := NewMistralOCR(cfg.Mistral.APIKey, cfg.Mistral.Model)
		if cfg.Mistral.BaseURL != "" {
			m.endpoint = cfg.Mistral.BaseURL + "/ocr"
		}
		m.client = hc
		return m, nil
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithHTTPClient(hc)}
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		client := anthropic.NewClient(cfg.Anthropic.APIKey, opts...)
		a := NewAnthropicOCR(client, cfg.Anthropic.APIKey, cfg.Anthropic.Model)
		if cfg.Anthropic.MaxTokens > 0 {
			a.maxTokens = cfg.Anthropic.MaxTokens
		}
		return a, nil
	case "local":
		return NewLocalPDF(), nil
	default:
		client := vision.NewClient(cfg.Vision.APIKey,
			vision.WithBaseURL(cfg.Vision.BaseURL),
			vision.WithHTTPClient(hc),
			vision.WithLanguageHints(cfg.Vision.LanguageHints...),
		)
		return NewGoogleVision(client, cfg.Vision.APIKey), nil
	}
}
