package extract

import (
	"errors"
	"fmt"

	"github.com/sells-group/doc-extractor/internal/fetcher"
	"github.com/sells-group/doc-extractor/internal/ocr"
	"github.com/sells-group/doc-extractor/internal/resilience"
	"github.com/sells-group/doc-extractor/internal/source"
)

// Kind classifies an extraction failure.
type Kind string

// Error kinds. Transport layers map these to their own codes.
const (
	KindUnsupportedSource Kind = "unsupported_source"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindNetwork           Kind = "network_error"
	KindExternalService   Kind = "external_service_error"
	KindMissingCredential Kind = "missing_credential"
	KindDecode            Kind = "decode_error"
	// KindInternal is a local fault (disk, temp files); never retryable.
	KindInternal Kind = "internal_error"
)

// Error is the typed failure returned by Pipeline.Extract.
type Error struct {
	Kind   Kind
	Detail string
	Stage  Stage
	// Status and Code describe the upstream response, when there was one.
	Status    int
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("extract: %s (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("extract: %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func newError(kind Kind, stage Stage, err error, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Stage:  stage,
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// resolveError maps a resolver failure onto a Kind.
func resolveError(err error) *Error {
	e := &Error{Kind: KindUnsupportedSource, Stage: StageResolving, Detail: err.Error(), Err: err}
	switch {
	case errors.Is(err, source.ErrStorage):
		e.Kind = KindInternal
	case errors.Is(err, source.ErrNetwork):
		e.Kind = KindNetwork
		e.Retryable = resilience.IsTransient(err)
	}
	var se *fetcher.StatusError
	if errors.As(err, &se) {
		e.Status = se.StatusCode
	}
	return e
}

// recognizeError maps a recognizer failure onto a Kind.
func recognizeError(err error) *Error {
	if errors.Is(err, ocr.ErrMissingCredential) {
		return newError(KindMissingCredential, StageExtracting, err, "ocr credential is not configured")
	}
	e := &Error{
		Kind:      KindExternalService,
		Stage:     StageExtracting,
		Detail:    err.Error(),
		Retryable: resilience.IsTransient(err),
		Err:       err,
	}
	var se *ocr.StatusError
	if errors.As(err, &se) {
		e.Status = se.StatusCode
		e.Code = se.Code
		e.Detail = se.Message
		if e.Detail == "" {
			e.Detail = se.Error()
		}
	}
	return e
}
