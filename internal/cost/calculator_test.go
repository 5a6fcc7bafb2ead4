package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		Google:  OCRRate{PerThousandPages: 1.50},
		Mistral: OCRRate{PerThousandPages: 1.00},
	}
}

func TestOCR(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name     string
		provider string
		pages    int
		want     float64
	}{
		{name: "google single image", provider: "google", pages: 1, want: 0.0015},
		{name: "google default provider", provider: "", pages: 2, want: 0.003},
		{name: "google 1000 pages", provider: "google", pages: 1000, want: 1.50},
		{name: "mistral 10 pages", provider: "mistral", pages: 10, want: 0.01},
		{name: "local is free", provider: "local", pages: 50, want: 0},
		{name: "unknown provider", provider: "tesseract", pages: 5, want: 0},
		{name: "zero pages", provider: "google", pages: 0, want: 0},
		{name: "negative pages", provider: "mistral", pages: -3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.OCR(tt.provider, tt.pages), 1e-9)
		})
	}
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	r := DefaultRates()
	assert.Greater(t, r.Google.PerThousandPages, 0.0)
	assert.Greater(t, r.Mistral.PerThousandPages, 0.0)
}

func TestTokens(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	// 1M input at $3 + 100k output at $15.
	assert.InDelta(t, 4.50, calc.Tokens("claude-sonnet-4-5-20250929", 1_000_000, 100_000), 1e-9)
	assert.Zero(t, calc.Tokens("unknown-model", 1_000_000, 1_000_000))
}

func TestEstimate(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	assert.InDelta(t, 0.003, calc.Estimate("google", Usage{Pages: 2}), 1e-9)
	assert.InDelta(t, 0.001, calc.Estimate("mistral", Usage{Pages: 1}), 1e-9)
	assert.Zero(t, calc.Estimate("local", Usage{Pages: 3}))

	u := Usage{Model: "claude-haiku-4-5-20251001", InputTokens: 2000, OutputTokens: 500, Pages: 9}
	assert.InDelta(t, 0.0016+0.002, calc.Estimate("anthropic", u), 1e-9)
}
