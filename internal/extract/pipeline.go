// Package extract runs one document through resolve, classify and extract
// and returns its text.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/doc-extractor/internal/cost"
	"github.com/sells-group/doc-extractor/internal/ocr"
	"github.com/sells-group/doc-extractor/internal/source"
)

// Stage is a pipeline state.
type Stage string

// Stages in order; StageFailed is terminal and reachable from any of them.
const (
	StageResolving   Stage = "resolving"
	StageClassifying Stage = "classifying"
	StageExtracting  Stage = "extracting"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Resolver turns an input reference into bytes.
type Resolver interface {
	Resolve(ctx context.Context, in source.InputReference) (*source.ResolvedFile, error)
}

// Result is the outcome of one successful extraction.
type Result struct {
	Text      string
	Strategy  Strategy
	Origin    source.Origin
	Name      string
	Extension string
	Size      int64
	// PaidCall is true iff an external OCR service was called. Pages is the
	// number of billed pages and CostUSD their estimated price; both stay
	// zero for direct reads and the local PDF reader.
	PaidCall bool
	Pages    int
	CostUSD  float64
	// Truncated is set when the recognizer read only part of the document.
	Truncated bool
	RequestID string
	Duration  time.Duration
}

// Options configures a Pipeline.
type Options struct {
	FallbackEncoding string
	VerifyContent    bool
	// Cost prices OCR calls made through Provider; nil skips estimation.
	Cost     *cost.Calculator
	Provider string
}

// Pipeline is safe for concurrent use; it keeps no per-request state.
type Pipeline struct {
	resolver   Resolver
	recognizer ocr.Recognizer
	decoder    *Decoder
	decoderErr error
	opts       Options
}

// New creates a Pipeline. A nil recognizer means OCR is not configured:
// DirectRead still works and VisionOCR inputs fail with KindMissingCredential.
func New(resolver Resolver, recognizer ocr.Recognizer, opts Options) *Pipeline {
	p := &Pipeline{
		resolver:   resolver,
		recognizer: recognizer,
		opts:       opts,
	}
	p.decoder, p.decoderErr = NewDecoder(opts.FallbackEncoding)
	if p.decoderErr != nil {
		zap.L().Warn("extract: invalid fallback encoding, text decoding will fail",
			zap.String("encoding", opts.FallbackEncoding),
			zap.Error(p.decoderErr),
		)
		return p
	}
	zap.L().Debug("extract: pipeline ready",
		zap.String("fallback_encoding", p.decoder.Name()),
		zap.Bool("ocr_configured", recognizer != nil),
		zap.String("ocr_provider", opts.Provider),
	)
	return p
}

// OCRConfigured reports whether VisionOCR inputs can be processed.
func (p *Pipeline) OCRConfigured() bool {
	return p.recognizer != nil
}

// Extract runs in through the pipeline. Failures are always *Error.
func (p *Pipeline) Extract(ctx context.Context, in source.InputReference) (Result, error) {
	start := time.Now()
	res := Result{RequestID: uuid.NewString()}
	log := zap.L().With(zap.String("request_id", res.RequestID))

	fail := func(e *Error) (Result, error) {
		log.Warn("extract: failed",
			zap.String("stage", string(e.Stage)),
			zap.String("kind", string(e.Kind)),
			zap.Int("status", e.Status),
			zap.Error(e),
		)
		return Result{}, e
	}

	log.Debug("extract: state", zap.String("state", string(StageResolving)))
	file, err := p.resolver.Resolve(ctx, in)
	if err != nil {
		return fail(resolveError(err))
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			log.Warn("extract: cleanup failed", zap.String("path", file.TempPath()), zap.Error(cerr))
		}
	}()
	res.Origin = file.Origin
	res.Name = file.Name
	res.Extension = file.Ext
	res.Size = file.Size

	log.Debug("extract: state", zap.String("state", string(StageClassifying)),
		zap.String("name", file.Name),
		zap.String("ext", file.Ext),
		zap.Int64("size", file.Size),
	)
	strategy, err := ClassifyExt(file.Ext)
	if err != nil {
		return fail(err.(*Error))
	}
	if p.opts.VerifyContent {
		if err := Verify(strategy, file.Ext, file.Data); err != nil {
			return fail(err.(*Error))
		}
	}
	res.Strategy = strategy

	log.Debug("extract: state", zap.String("state", string(StageExtracting)), zap.String("strategy", string(strategy)))
	switch strategy {
	case DirectRead:
		text, e := p.readText(file.Data)
		if e != nil {
			return fail(e)
		}
		res.Text = text
	case VisionOCR:
		if p.recognizer == nil {
			return fail(newError(KindMissingCredential, StageExtracting, ocr.ErrMissingCredential,
				"ocr credential is not configured"))
		}
		rec, err := p.recognizer.Recognize(ctx, file.Data, MimeType(file.Ext))
		if err != nil {
			return fail(recognizeError(err))
		}
		if rec == nil {
			rec = &ocr.Recognition{}
		}
		res.Text = strings.Join(rec.Blocks, "")
		res.Truncated = rec.Truncated
		if rec.External {
			usage := rec.Usage
			if usage.Pages <= 0 {
				usage.Pages = max(len(rec.Blocks), 1)
			}
			res.PaidCall = true
			res.Pages = usage.Pages
			if p.opts.Cost != nil {
				res.CostUSD = p.opts.Cost.Estimate(p.opts.Provider, usage)
			}
		}
		if rec.Truncated {
			log.Warn("extract: recognizer returned partial text",
				zap.String("name", file.Name),
				zap.Int("pages", res.Pages),
			)
		}
	}

	res.Duration = time.Since(start)
	log.Debug("extract: state", zap.String("state", string(StageDone)),
		zap.Bool("paid_call", res.PaidCall),
		zap.Int("pages", res.Pages),
		zap.Float64("cost_usd", res.CostUSD),
		zap.Int("chars", len(res.Text)),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}

func (p *Pipeline) readText(data []byte) (string, *Error) {
	if p.decoderErr != nil {
		return "", newError(KindDecode, StageExtracting, p.decoderErr, "%v", p.decoderErr)
	}
	text, err := p.decoder.Decode(data)
	if err != nil {
		return "", newError(KindDecode, StageExtracting, err, "file is not readable as text: %v", err)
	}
	return text, nil
}
