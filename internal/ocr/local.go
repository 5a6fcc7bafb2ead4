package ocr

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// LocalPDF reads the embedded text layer of PDFs without any network call.
// It cannot read images or scanned pages.
type LocalPDF struct{}

// NewLocalPDF creates a LocalPDF recognizer.
func NewLocalPDF() *LocalPDF {
	return &LocalPDF{}
}

// Recognize returns one block per page that carries a text layer. Nothing
// leaves the process, so the result is never External.
func (l *LocalPDF) Recognize(ctx context.Context, content []byte, mimeType string) (*Recognition, error) {
	if mimeType != "application/pdf" {
		return nil, eris.Errorf("ocr: local provider cannot read %s", mimeType)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: open PDF")
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ocr: local read cancelled")
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}
		pages = append(pages, text)
	}
	for i := 0; i < len(pages)-1; i++ {
		if !strings.HasSuffix(pages[i], "\n") {
			pages[i] += "\n"
		}
	}

	return &Recognition{Blocks: pages}, nil
}
