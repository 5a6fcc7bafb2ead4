package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/doc-extractor/internal/fetcher"
)

// maxInterstitialBytes bounds how much of an HTML response is inspected.
const maxInterstitialBytes = 1 << 20

// Options configures a Resolver.
type Options struct {
	DriveBaseURL string
	DocsBaseURL  string
	// TempDir holds spooled downloads; empty means os.TempDir().
	TempDir  string
	MaxBytes int64
}

// Resolver resolves InputReferences. It holds no per-request state.
type Resolver struct {
	fetcher fetcher.Fetcher
	opts    Options
}

// NewResolver creates a Resolver that downloads through f.
func NewResolver(f fetcher.Fetcher, opts Options) *Resolver {
	if opts.DriveBaseURL == "" {
		opts.DriveBaseURL = defaultDriveBaseURL
	}
	if opts.DocsBaseURL == "" {
		opts.DocsBaseURL = defaultDocsBaseURL
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 50 << 20
	}
	opts.DriveBaseURL = strings.TrimRight(opts.DriveBaseURL, "/")
	opts.DocsBaseURL = strings.TrimRight(opts.DocsBaseURL, "/")
	return &Resolver{fetcher: f, opts: opts}
}

// Resolve returns the bytes behind in. The caller must Close the result.
func (r *Resolver) Resolve(ctx context.Context, in InputReference) (*ResolvedFile, error) {
	if in.populated() != 1 {
		return nil, eris.Wrap(ErrUnsupportedSource, "source: exactly one of path, bytes or url is required")
	}

	switch {
	case in.Bytes != nil:
		return &ResolvedFile{
			Name:   filepath.Base(in.Filename),
			Ext:    normalizeExt(in.Filename),
			Data:   in.Bytes,
			Size:   int64(len(in.Bytes)),
			Origin: OriginUpload,
		}, nil
	case in.Path != "":
		return r.resolvePath(in.Path)
	default:
		return r.resolveURL(ctx, in.URL)
	}
}

func (r *Resolver) resolvePath(path string) (*ResolvedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(ErrUnsupportedSource, "source: file not found: %s", path)
	}
	if info.IsDir() {
		return nil, eris.Wrapf(ErrUnsupportedSource, "source: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrUnsupportedSource, "source: read %s: %v", path, err)
	}
	return &ResolvedFile{
		Name:   filepath.Base(path),
		Ext:    normalizeExt(path),
		Data:   data,
		Size:   int64(len(data)),
		Origin: OriginFile,
	}, nil
}

func (r *Resolver) resolveURL(ctx context.Context, raw string) (*ResolvedFile, error) {
	link, ok := ParseDriveURL(raw)
	if !ok {
		return nil, eris.Wrapf(ErrUnsupportedSource, "source: not a recognised drive share link: %q", raw)
	}
	downloadURL := link.downloadURL(r.opts.DriveBaseURL, r.opts.DocsBaseURL)

	log := zap.L().With(zap.String("file_id", link.FileID))
	log.Debug("source: downloading drive file", zap.String("url", downloadURL))

	dl, err := r.download(ctx, downloadURL)
	if err != nil {
		return nil, err
	}

	if isHTML(dl.ContentType) {
		page, err := io.ReadAll(io.LimitReader(dl.Body, maxInterstitialBytes))
		_ = dl.Body.Close()
		if err != nil {
			return nil, eris.Wrapf(ErrNetwork, "source: read drive response: %v", err)
		}
		base, _ := url.Parse(downloadURL)
		next, ok := confirmURL(base, page)
		if !ok {
			return nil, eris.Wrap(ErrUnsupportedSource, "source: drive file is not publicly accessible")
		}
		log.Debug("source: following virus scan confirmation")
		dl, err = r.download(ctx, next)
		if err != nil {
			return nil, err
		}
		if isHTML(dl.ContentType) {
			_ = dl.Body.Close()
			return nil, eris.Wrap(ErrUnsupportedSource, "source: drive file is not publicly accessible")
		}
	}
	defer dl.Body.Close() //nolint:errcheck

	file, err := r.spool(dl.Body)
	if err != nil {
		return nil, err
	}

	name, ext := downloadName(dl, link, raw)
	if corrected := sniffExt(file.Data, ext); corrected != ext {
		log.Debug("source: corrected extension from content", zap.String("from", ext), zap.String("to", corrected))
		ext = corrected
	}
	file.Name = name
	file.Ext = ext
	file.Origin = OriginDrive
	return file, nil
}

// download performs one GET and sorts failures into unsupported (the server
// answered, but not with the file) and network errors.
func (r *Resolver) download(ctx context.Context, u string) (*fetcher.Download, error) {
	dl, err := r.fetcher.Download(ctx, u)
	if err == nil {
		return dl, nil
	}
	var se *fetcher.StatusError
	if errors.As(err, &se) {
		return nil, &downloadError{cause: ErrUnsupportedSource, err: err, status: se.StatusCode}
	}
	return nil, &downloadError{cause: ErrNetwork, err: err}
}

// spool copies the body to a temp file bounded by MaxBytes and reads it back.
// The temp file is removed on any error. Read failures are network errors,
// write failures are storage errors.
func (r *Resolver) spool(body io.Reader) (file *ResolvedFile, err error) {
	tmp, err := os.CreateTemp(r.opts.TempDir, "extract-*.download")
	if err != nil {
		return nil, eris.Wrapf(ErrStorage, "source: create temp file: %v", err)
	}
	path := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	src := &trackedReader{r: io.LimitReader(body, r.opts.MaxBytes+1)}
	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if src.err != nil {
		return nil, eris.Wrapf(ErrNetwork, "source: read download: %v", src.err)
	}
	if err != nil {
		return nil, eris.Wrapf(ErrStorage, "source: write temp file: %v", err)
	}
	if n > r.opts.MaxBytes {
		return nil, eris.Wrapf(ErrUnsupportedSource, "source: file exceeds %d bytes", r.opts.MaxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrStorage, "source: read temp file: %v", err)
	}
	return &ResolvedFile{Data: data, Size: n, tempPath: path}, nil
}

// trackedReader records the first read error so a failed copy can be blamed
// on the right side.
type trackedReader struct {
	r   io.Reader
	err error
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

func isHTML(contentType string) bool {
	mt, _, _ := mime.ParseMediaType(contentType)
	return mt == "text/html"
}

var contentTypeExt = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"text/plain":      ".txt",
	"text/markdown":   ".md",
	"text/csv":        ".csv",
}

// downloadName derives a display name and extension for a download: the
// Content-Disposition filename first, then the content type, then the URL.
func downloadName(dl *fetcher.Download, link DriveLink, raw string) (string, string) {
	if _, params, err := mime.ParseMediaType(dl.ContentDisposition); err == nil {
		if fn := filepath.Base(params["filename"]); fn != "." && fn != "/" && normalizeExt(fn) != "" {
			return fn, normalizeExt(fn)
		}
	}

	ext := ".txt"
	mt, _, _ := mime.ParseMediaType(dl.ContentType)
	switch {
	case contentTypeExt[mt] != "":
		ext = contentTypeExt[mt]
	case strings.HasPrefix(mt, "text/"), strings.Contains(mt, "vnd.google-apps.document"):
		ext = ".txt"
	case strings.Contains(strings.ToLower(raw), "pdf"):
		ext = ".pdf"
	}
	return "drive-" + link.FileID + ext, ext
}

// sniffExt corrects a text guess when the content is clearly a PDF or image.
func sniffExt(data []byte, ext string) string {
	switch ext {
	case ".txt", ".md", ".csv", ".log", "":
	default:
		return ext
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return ".pdf"
	}
	switch sniffed := contentTypeExt[http.DetectContentType(data)]; sniffed {
	case ".png", ".jpg", ".gif":
		return sniffed
	}
	return ext
}

// downloadError keeps the upstream status next to the classified cause.
type downloadError struct {
	cause  error
	err    error
	status int
}

func (e *downloadError) Error() string {
	return "source: " + e.err.Error()
}

func (e *downloadError) Unwrap() []error {
	return []error{e.cause, e.err}
}

// StatusCode returns the upstream HTTP status, or 0 for transport failures.
func (e *downloadError) StatusCode() int {
	return e.status
}
