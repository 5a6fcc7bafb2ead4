package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://vision.googleapis.com/v1"

// Feature types used for text detection.
const (
	FeatureTextDetection         = "TEXT_DETECTION"
	FeatureDocumentTextDetection = "DOCUMENT_TEXT_DETECTION"
)

// Client performs Google Cloud Vision text detection.
type Client interface {
	// AnnotateImage runs TEXT_DETECTION on a single image.
	AnnotateImage(ctx context.Context, content []byte) (*AnnotateImageResponse, error)
	// AnnotateFile runs DOCUMENT_TEXT_DETECTION on a PDF or TIFF.
	AnnotateFile(ctx context.Context, content []byte, mimeType string) (*AnnotateFileResponse, error)
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vision: unexpected status %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

// Status is the google.rpc.Status embedded in per-request results.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// TextAnnotation is the structured OCR result; only the flattened text is kept.
type TextAnnotation struct {
	Text string `json:"text"`
}

// EntityAnnotation is one detected text region. The first entry holds the whole text.
type EntityAnnotation struct {
	Description string `json:"description"`
	Locale      string `json:"locale,omitempty"`
}

// AnnotateImageResponse is the result for one image or one PDF page.
type AnnotateImageResponse struct {
	FullTextAnnotation *TextAnnotation    `json:"fullTextAnnotation,omitempty"`
	TextAnnotations    []EntityAnnotation `json:"textAnnotations,omitempty"`
	Error              *Status            `json:"error,omitempty"`
}

// AnnotateFileResponse holds one AnnotateImageResponse per processed page.
type AnnotateFileResponse struct {
	Responses  []AnnotateImageResponse `json:"responses"`
	TotalPages int                     `json:"totalPages,omitempty"`
	Error      *Status                 `json:"error,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLanguageHints sets imageContext.languageHints on every request.
func WithLanguageHints(hints ...string) Option {
	return func(c *httpClient) {
		c.languageHints = hints
	}
}

type httpClient struct {
	apiKey        string
	baseURL       string
	languageHints []string
	http          *http.Client
}

// NewClient creates a Google Cloud Vision client authenticated with an API key.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type feature struct {
	Type string `json:"type"`
}

type imageContext struct {
	LanguageHints []string `json:"languageHints,omitempty"`
}

type image struct {
	Content string `json:"content"`
}

type inputConfig struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type imageRequest struct {
	Image        image         `json:"image"`
	Features     []feature     `json:"features"`
	ImageContext *imageContext `json:"imageContext,omitempty"`
}

type fileRequest struct {
	InputConfig  inputConfig   `json:"inputConfig"`
	Features     []feature     `json:"features"`
	ImageContext *imageContext `json:"imageContext,omitempty"`
}

type batchRequest[T any] struct {
	Requests []T `json:"requests"`
}

type imageBatchResponse struct {
	Responses []AnnotateImageResponse `json:"responses"`
}

type fileBatchResponse struct {
	Responses []AnnotateFileResponse `json:"responses"`
}

type errorEnvelope struct {
	Error Status `json:"error"`
}

func (c *httpClient) context() *imageContext {
	if len(c.languageHints) == 0 {
		return nil
	}
	return &imageContext{LanguageHints: c.languageHints}
}

func (c *httpClient) AnnotateImage(ctx context.Context, content []byte) (*AnnotateImageResponse, error) {
	body := batchRequest[imageRequest]{Requests: []imageRequest{{
		Image:        image{Content: base64.StdEncoding.EncodeToString(content)},
		Features:     []feature{{Type: FeatureTextDetection}},
		ImageContext: c.context(),
	}}}

	var out imageBatchResponse
	if err := c.post(ctx, "/images:annotate", body, &out); err != nil {
		return nil, err
	}
	if len(out.Responses) == 0 {
		return &AnnotateImageResponse{}, nil
	}
	return &out.Responses[0], nil
}

func (c *httpClient) AnnotateFile(ctx context.Context, content []byte, mimeType string) (*AnnotateFileResponse, error) {
	body := batchRequest[fileRequest]{Requests: []fileRequest{{
		InputConfig: inputConfig{
			Content:  base64.StdEncoding.EncodeToString(content),
			MimeType: mimeType,
		},
		Features:     []feature{{Type: FeatureDocumentTextDetection}},
		ImageContext: c.context(),
	}}}

	var out fileBatchResponse
	if err := c.post(ctx, "/files:annotate", body, &out); err != nil {
		return nil, err
	}
	if len(out.Responses) == 0 {
		return &AnnotateFileResponse{}, nil
	}
	return &out.Responses[0], nil
}

func (c *httpClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "vision: marshal request")
	}

	endpoint := c.baseURL + path + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "vision: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The request URL carries the key; keep it out of the error text.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = c.baseURL + path
		}
		return eris.Wrap(err, "vision: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "vision: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var env errorEnvelope
		if json.Unmarshal(respBody, &env) == nil && env.Error.Message != "" {
			apiErr.Status = env.Error.Status
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "vision: unmarshal response")
	}
	return nil
}
