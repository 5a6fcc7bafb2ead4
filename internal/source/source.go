// Package source turns an extraction input (local path, uploaded bytes or a
// Drive share link) into a ResolvedFile owned by the caller.
package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Sentinel causes; the pipeline maps them onto its error kinds.
var (
	ErrUnsupportedSource = errors.New("unsupported source")
	ErrNetwork           = errors.New("network error")
	// ErrStorage is a local disk fault while spooling a download.
	ErrStorage = errors.New("local storage error")
)

// Origin records where a ResolvedFile came from.
type Origin string

// Origins.
const (
	OriginFile   Origin = "file"
	OriginUpload Origin = "upload"
	OriginDrive  Origin = "drive"
)

// InputReference names exactly one input: a local path, raw bytes (named by
// Filename) or a remote URL.
type InputReference struct {
	Path     string
	Bytes    []byte
	Filename string
	URL      string
}

// FromPath references a local file.
func FromPath(path string) InputReference {
	return InputReference{Path: path}
}

// FromBytes references uploaded content. A nil slice is treated as empty.
func FromBytes(filename string, data []byte) InputReference {
	if data == nil {
		data = []byte{}
	}
	return InputReference{Bytes: data, Filename: filename}
}

// FromURL references a remote file.
func FromURL(rawURL string) InputReference {
	return InputReference{URL: rawURL}
}

func (in InputReference) populated() int {
	n := 0
	if in.Path != "" {
		n++
	}
	if in.Bytes != nil {
		n++
	}
	if in.URL != "" {
		n++
	}
	return n
}

// ResolvedFile is the content of one input. Close releases any temporary
// storage; it is safe to call more than once.
type ResolvedFile struct {
	Name   string
	Ext    string
	Data   []byte
	Size   int64
	Origin Origin

	tempPath  string
	closeOnce sync.Once
	closeErr  error
}

// TempPath returns the spooled copy on disk, if any.
func (f *ResolvedFile) TempPath() string {
	return f.tempPath
}

// Close removes the temp file, if one was created.
func (f *ResolvedFile) Close() error {
	f.closeOnce.Do(func() {
		f.Data = nil
		if f.tempPath == "" {
			return
		}
		if err := os.Remove(f.tempPath); err != nil && !os.IsNotExist(err) {
			f.closeErr = err
		}
	})
	return f.closeErr
}

func normalizeExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
