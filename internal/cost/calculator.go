// Package cost estimates what external OCR calls cost.
package cost

// Rates holds per-provider OCR pricing.
type Rates struct {
	Google  OCRRate `yaml:"google" mapstructure:"google"`
	Mistral OCRRate `yaml:"mistral" mapstructure:"mistral"`
}

// OCRRate is USD per 1000 billed pages (images count as one page).
type OCRRate struct {
	PerThousandPages float64 `yaml:"per_thousand_pages" mapstructure:"per_thousand_pages"`
}

// Usage describes what one OCR call consumed. Page-priced providers fill
// Pages; token-priced ones fill Model and the token counts.
type Usage struct {
	Pages        int
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// modelPricing holds per-million-token pricing for known models.
var modelPricing = map[string][2]float64{
	// model → {input $/MTok, output $/MTok}
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"claude-opus-4-6":            {15.00, 75.00},
}

// Calculator computes costs for OCR usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Estimate prices one call made through provider.
func (c *Calculator) Estimate(provider string, u Usage) float64 {
	if provider == "anthropic" {
		return c.Tokens(u.Model, u.InputTokens, u.OutputTokens)
	}
	return c.OCR(provider, u.Pages)
}

// OCR returns the estimated cost of recognizing pages with provider.
// Unknown providers and the local PDF reader cost nothing.
func (c *Calculator) OCR(provider string, pages int) float64 {
	if pages <= 0 {
		return 0
	}
	var rate OCRRate
	switch provider {
	case "google", "":
		rate = c.rates.Google
	case "mistral":
		rate = c.rates.Mistral
	default:
		return 0
	}
	return float64(pages) / 1000 * rate.PerThousandPages
}

// Tokens returns the cost of a model call. Unknown models return 0.
func (c *Calculator) Tokens(model string, input, output int64) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	return float64(input)/1e6*pricing[0] + float64(output)/1e6*pricing[1]
}

// DefaultRates returns list prices for the page-priced providers.
func DefaultRates() Rates {
	return Rates{
		Google:  OCRRate{PerThousandPages: 1.50},
		Mistral: OCRRate{PerThousandPages: 1.00},
	}
}
