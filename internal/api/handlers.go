package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/sells-group/doc-extractor/internal/extract"
	"github.com/sells-group/doc-extractor/internal/source"
)

// kindInvalidRequest is used for malformed requests that never reach the pipeline.
const kindInvalidRequest = "invalid_request"

type handlers struct {
	ex        Extractor
	maxUpload int64
}

type fileInfo struct {
	Name      string  `json:"name"`
	Size      string  `json:"size"`
	Type      string  `json:"type"`
	Extension string  `json:"extension"`
	PaidCall  bool    `json:"paid_call"`
	Pages     int     `json:"pages,omitempty"`
	CostUSD   float64 `json:"estimated_cost_usd"`
	Truncated bool    `json:"truncated,omitempty"`
}

type successResponse struct {
	Success   bool     `json:"success"`
	Text      string   `json:"text"`
	FileInfo  fileInfo `json:"file_info"`
	RequestID string   `json:"request_id"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"ocr_configured": h.ex.OCRConfigured(),
	})
}

func (h *handlers) extractFile(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, kindInvalidRequest,
				"upload exceeds "+humanize.IBytes(uint64(h.maxUpload)))
			return
		}
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "read upload: "+err.Error())
		return
	}
	if int64(len(data)) > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, kindInvalidRequest,
			"upload exceeds "+humanize.IBytes(uint64(h.maxUpload)))
		return
	}

	h.run(w, r, source.FromBytes(header.Filename, data))
}

func (h *handlers) extractURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "url is required")
		return
	}

	h.run(w, r, source.FromURL(req.URL))
}

func (h *handlers) run(w http.ResponseWriter, r *http.Request, in source.InputReference) {
	res, err := h.ex.Extract(r.Context(), in)
	if err != nil {
		var e *extract.Error
		if !errors.As(err, &e) {
			zap.L().Error("api: untyped extraction error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeError(w, StatusFor(e.Kind), string(e.Kind), e.Detail)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Text:    res.Text,
		FileInfo: fileInfo{
			Name:      res.Name,
			Size:      humanize.Bytes(uint64(res.Size)),
			Type:      fileType(res.Strategy),
			Extension: strings.TrimPrefix(res.Extension, "."),
			PaidCall:  res.PaidCall,
			Pages:     res.Pages,
			CostUSD:   res.CostUSD,
			Truncated: res.Truncated,
		},
		RequestID: res.RequestID,
	})
}

// StatusFor maps an extraction error kind to an HTTP status.
func StatusFor(kind extract.Kind) int {
	switch kind {
	case extract.KindUnsupportedSource:
		return http.StatusBadRequest
	case extract.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case extract.KindDecode:
		return http.StatusUnprocessableEntity
	case extract.KindNetwork, extract.KindExternalService:
		return http.StatusBadGateway
	case extract.KindMissingCredential:
		return http.StatusServiceUnavailable
	case extract.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func fileType(s extract.Strategy) string {
	if s == extract.VisionOCR {
		return "vision"
	}
	return "text"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Kind: kind, Error: msg})
}
