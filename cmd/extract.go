package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/doc-extractor/internal/extract"
	"github.com/sells-group/doc-extractor/internal/source"
)

var (
	extractOutput      string
	extractConcurrency int
)

var extractCmd = &cobra.Command{
	Use:   "extract <path|url>...",
	Short: "Extract text from local files or Google Drive links",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline(cfg, "extract")
		if err != nil {
			return err
		}

		return runExtract(ctx, p, args, extractOutput, extractConcurrency, cmd.OutOrStdout())
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "directory to write <name>.txt files into")
	extractCmd.Flags().IntVarP(&extractConcurrency, "concurrency", "c", 4, "max inputs processed at once")
	rootCmd.AddCommand(extractCmd)
}

// extractor is the pipeline as seen by the extract command.
type extractor interface {
	Extract(ctx context.Context, in source.InputReference) (extract.Result, error)
}

// inputFor treats http(s) arguments as URLs and everything else as a path.
func inputFor(arg string) source.InputReference {
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return source.FromURL(arg)
	}
	return source.FromPath(arg)
}

// runExtract extracts every input, writing to stdout for a single input
// without outDir and to outDir otherwise. Individual failures are logged and
// counted; the returned error reports how many failed.
func runExtract(ctx context.Context, ex extractor, args []string, outDir string, concurrency int, stdout io.Writer) error {
	if outDir == "" && len(args) > 1 {
		return eris.New("extract: --output is required with more than one input")
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrapf(err, "extract: create output dir %s", outDir)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	var failed atomic.Int64
	names := &outputNames{seen: make(map[string]int)}

	for _, arg := range args {
		g.Go(func() error {
			log := zap.L().With(zap.String("input", arg))

			res, err := ex.Extract(gctx, inputFor(arg))
			if err != nil {
				failed.Add(1)
				kind, _ := extract.KindOf(err)
				log.Error("extraction failed", zap.String("kind", string(kind)), zap.Error(err))
				return nil // keep going
			}

			if outDir == "" {
				if _, err := io.WriteString(stdout, res.Text); err != nil {
					return eris.Wrap(err, "extract: write stdout")
				}
				return nil
			}

			path := filepath.Join(outDir, names.next(res.Name))
			if err := os.WriteFile(path, []byte(res.Text), 0o644); err != nil {
				failed.Add(1)
				log.Error("write output failed", zap.String("path", path), zap.Error(err))
				return nil
			}

			log.Info("extraction complete",
				zap.String("output", path),
				zap.String("strategy", string(res.Strategy)),
				zap.String("size", humanize.Bytes(uint64(res.Size))),
				zap.Bool("paid_call", res.PaidCall),
				zap.Float64("cost_usd", res.CostUSD),
				zap.Duration("elapsed", res.Duration),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return eris.Errorf("extract: %d of %d inputs failed", n, len(args))
	}
	return nil
}

// outputNames hands out unique <name>.txt file names.
type outputNames struct {
	mu   sync.Mutex
	seen map[string]int
}

func (o *outputNames) next(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "output"
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	n := o.seen[base]
	o.seen[base] = n + 1
	if n == 0 {
		return base + ".txt"
	}
	return base + "-" + strconv.Itoa(n+1) + ".txt"
}
