package main

import (
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/doc-extractor/internal/config"
	"github.com/sells-group/doc-extractor/internal/cost"
	"github.com/sells-group/doc-extractor/internal/extract"
	"github.com/sells-group/doc-extractor/internal/fetcher"
	"github.com/sells-group/doc-extractor/internal/ocr"
	"github.com/sells-group/doc-extractor/internal/source"
)

// initPipeline validates the config for mode and wires fetcher, resolver and
// recognizer into a Pipeline. A missing OCR credential is not fatal: text
// formats still work and OCR inputs fail with missing_credential.
func initPipeline(c *config.Config, mode string) (*extract.Pipeline, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  c.Fetch.UserAgent,
		Timeout:    c.Fetch.Timeout(),
		RatePerSec: c.Fetch.RatePerSec,
	})
	resolver := source.NewResolver(f, source.Options{
		DriveBaseURL: c.Drive.BaseURL,
		DocsBaseURL:  c.Drive.DocsBaseURL,
		TempDir:      c.Fetch.TempDir,
		MaxBytes:     c.Fetch.MaxBytes,
	})

	rec, err := ocr.NewRecognizer(c)
	if err != nil {
		if !errors.Is(err, ocr.ErrMissingCredential) {
			return nil, err
		}
		zap.L().Warn("ocr credential not configured, PDFs and images will be rejected",
			zap.String("provider", c.OCR.Provider),
		)
		rec = nil
	}

	return extract.New(resolver, rec, extract.Options{
		FallbackEncoding: c.Extract.FallbackEncoding,
		VerifyContent:    c.Extract.VerifyContent,
		Cost:             cost.NewCalculator(c.Pricing),
		Provider:         c.OCR.Provider,
	}), nil
}
