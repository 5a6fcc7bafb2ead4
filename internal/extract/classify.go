package extract

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Strategy selects how a file is turned into text.
type Strategy string

// Strategies.
const (
	// DirectRead decodes the bytes locally; no external cost.
	DirectRead Strategy = "direct_read"
	// VisionOCR sends the bytes to the OCR service.
	VisionOCR Strategy = "vision_ocr"
)

var strategyByExt = map[string]Strategy{
	".txt":  DirectRead,
	".md":   DirectRead,
	".csv":  DirectRead,
	".log":  DirectRead,
	".pdf":  VisionOCR,
	".png":  VisionOCR,
	".jpg":  VisionOCR,
	".jpeg": VisionOCR,
	".gif":  VisionOCR,
}

var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".log":  "text/plain",
}

// Classify picks a strategy from the extension of name.
func Classify(name string) (Strategy, error) {
	return ClassifyExt(filepath.Ext(name))
}

// ClassifyExt picks a strategy for ext, with or without the leading dot.
// Matching is case-insensitive.
func ClassifyExt(ext string) (Strategy, error) {
	ext = normalizeExt(ext)
	if s, ok := strategyByExt[ext]; ok {
		return s, nil
	}
	if ext == "" {
		return "", newError(KindUnsupportedFormat, StageClassifying, nil, "file has no extension")
	}
	return "", newError(KindUnsupportedFormat, StageClassifying, nil, "unsupported file type %q", ext)
}

// MimeType returns the media type for a supported extension, or
// application/octet-stream.
func MimeType(ext string) string {
	if mt, ok := mimeByExt[normalizeExt(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}

var (
	sigPDF  = []byte("%PDF-")
	sigPNG  = []byte("\x89PNG\r\n\x1a\n")
	sigJPEG = []byte{0xFF, 0xD8, 0xFF}
	sigGIF7 = []byte("GIF87a")
	sigGIF9 = []byte("GIF89a")
)

// Verify checks that OCR inputs carry the magic bytes their extension
// promises. DirectRead inputs are not checked.
func Verify(s Strategy, ext string, data []byte) error {
	if s != VisionOCR {
		return nil
	}
	ext = normalizeExt(ext)

	var ok bool
	switch ext {
	case ".pdf":
		ok = bytes.HasPrefix(data, sigPDF)
	case ".png":
		ok = bytes.HasPrefix(data, sigPNG)
	case ".jpg", ".jpeg":
		ok = bytes.HasPrefix(data, sigJPEG)
	case ".gif":
		ok = bytes.HasPrefix(data, sigGIF7) || bytes.HasPrefix(data, sigGIF9)
	}
	if !ok {
		return newError(KindUnsupportedFormat, StageClassifying, nil, "content does not look like a %s file", strings.TrimPrefix(ext, "."))
	}
	return nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
