package fetcher

import (
	"context"
	"fmt"
	"io"
)

// Fetcher defines the interface for downloading remote files.
type Fetcher interface {
	// Download issues exactly one GET for url. A non-2xx response is returned
	// as *StatusError with the body already closed.
	Download(ctx context.Context, url string) (*Download, error)
}

// Download is a successful response. The caller must close Body.
type Download struct {
	URL                string
	StatusCode         int
	ContentType        string
	ContentDisposition string
	ContentLength      int64
	Body               io.ReadCloser
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download: unexpected status %d from %s", e.StatusCode, e.URL)
}
