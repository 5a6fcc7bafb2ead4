package ocr

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/doc-extractor/internal/cost"
	"github.com/sells-group/doc-extractor/pkg/vision"
)

const providerGoogle = "google"

// GoogleVision recognizes text with Google Cloud Vision. PDFs go through
// files:annotate, everything else through images:annotate.
type GoogleVision struct {
	client vision.Client
	apiKey string
}

// NewGoogleVision wraps a vision client. apiKey is only checked for presence.
func NewGoogleVision(client vision.Client, apiKey string) *GoogleVision {
	return &GoogleVision{client: client, apiKey: apiKey}
}

// Recognize returns one block per page for PDFs and a single block for images.
// Synchronous files:annotate reads at most the first five pages of a PDF;
// the result is marked Truncated when the document is longer.
func (g *GoogleVision) Recognize(ctx context.Context, content []byte, mimeType string) (*Recognition, error) {
	if g.apiKey == "" {
		return nil, ErrMissingCredential
	}

	if mimeType == "application/pdf" {
		resp, err := g.client.AnnotateFile(ctx, content, mimeType)
		if err != nil {
			return nil, convertVisionErr(err)
		}
		if resp.Error != nil {
			return nil, statusFromRPC(resp.Error)
		}
		var pages []string
		for _, page := range resp.Responses {
			if page.Error != nil {
				return nil, statusFromRPC(page.Error)
			}
			if text := pageText(page); text != "" {
				pages = append(pages, text)
			}
		}
		for i := 0; i < len(pages)-1; i++ {
			if !strings.HasSuffix(pages[i], "\n") {
				pages[i] += "\n"
			}
		}

		rec := &Recognition{
			Blocks:   pages,
			External: true,
			Usage:    cost.Usage{Pages: max(len(resp.Responses), 1)},
		}
		if resp.TotalPages > len(resp.Responses) {
			rec.Truncated = true
			zap.L().Warn("ocr: google vision read only part of the PDF",
				zap.Int("pages_read", len(resp.Responses)),
				zap.Int("total_pages", resp.TotalPages),
			)
		}
		return rec, nil
	}

	resp, err := g.client.AnnotateImage(ctx, content)
	if err != nil {
		return nil, convertVisionErr(err)
	}
	if resp.Error != nil {
		return nil, statusFromRPC(resp.Error)
	}
	rec := &Recognition{External: true, Usage: cost.Usage{Pages: 1}}
	if text := pageText(*resp); text != "" {
		rec.Blocks = []string{text}
	}
	return rec, nil
}

// pageText prefers the full annotation and falls back to the first entity,
// which Vision fills with the whole detected text.
func pageText(r vision.AnnotateImageResponse) string {
	if r.FullTextAnnotation != nil {
		return r.FullTextAnnotation.Text
	}
	if len(r.TextAnnotations) > 0 {
		return r.TextAnnotations[0].Description
	}
	return ""
}

func convertVisionErr(err error) error {
	var apiErr *vision.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{
			Provider:   providerGoogle,
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.Status,
			Message:    apiErr.Message,
		}
	}
	return eris.Wrap(err, "ocr: google vision call")
}

// rpcToHTTP maps google.rpc codes found in per-page errors to HTTP statuses.
var rpcToHTTP = map[int]int{
	3:  http.StatusBadRequest,
	4:  http.StatusGatewayTimeout,
	5:  http.StatusNotFound,
	7:  http.StatusForbidden,
	8:  http.StatusTooManyRequests,
	13: http.StatusInternalServerError,
	14: http.StatusServiceUnavailable,
	16: http.StatusUnauthorized,
}

func statusFromRPC(s *vision.Status) *StatusError {
	code := s.Status
	if code == "" {
		code = strconv.Itoa(s.Code)
	}
	status, ok := rpcToHTTP[s.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &StatusError{
		Provider:   providerGoogle,
		StatusCode: status,
		Code:       code,
		Message:    s.Message,
	}
}
