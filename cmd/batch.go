package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/credit-extract/internal/model"
)

var (
	batchRecursive   bool
	batchConcurrency int
	batchNoStore     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract every supported document in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}

		paths, err := listDocuments(args[0], batchRecursive)
		if err != nil {
			return err
		}

		env, err := initExtractor(ctx, cfg, "batch", !batchNoStore)
		if err != nil {
			return err
		}
		defer env.Close()

		sum := processBatch(ctx, paths, cfg.Batch.Concurrency, env.Pipeline, env.Store)
		sum.Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVarP(&batchRecursive, "recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "documents processed at once (default from config)")
	batchCmd.Flags().BoolVar(&batchNoStore, "no-store", false, "do not persist outcomes")
	rootCmd.AddCommand(batchCmd)
}

// documentProcessor is the part of the pipeline batch drives.
type documentProcessor interface {
	ProcessDocument(ctx context.Context, doc model.DocumentInput) *model.ExtractionOutcome
}

// outcomeSaver is the part of the store batch writes to.
type outcomeSaver interface {
	SaveOutcome(ctx context.Context, filename string, outcome *model.ExtractionOutcome) (string, error)
}

// batchSummary tallies a batch run.
type batchSummary struct {
	mu        sync.Mutex
	Total     int
	ReadErr   int
	StoreErr  int
	ByMethod  map[string]int
	ConfSum   float64
	Processed int
	Duration  time.Duration
}

func (s *batchSummary) add(o *model.ExtractionOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
	s.ByMethod[o.ProcessingMethod.Label()]++
	s.ConfSum += o.Confidence
}

func (s *batchSummary) fail(storeErr bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if storeErr {
		s.StoreErr++
		return
	}
	s.ReadErr++
}

// AvgConfidence is the mean overall confidence of processed documents.
func (s *batchSummary) AvgConfidence() float64 {
	if s.Processed == 0 {
		return 0
	}
	return s.ConfSum / float64(s.Processed)
}

// Print writes a human-readable summary.
func (s *batchSummary) Print(w io.Writer) {
	fmt.Fprintf(w, "documents: %d processed: %d read errors: %d store errors: %d\n",
		s.Total, s.Processed, s.ReadErr, s.StoreErr)
	for _, m := range []model.Method{
		model.MethodStructuredDocument,
		model.MethodGeneralOCR,
		model.MethodBasicImageOCR,
		model.MethodFallback,
	} {
		if n := s.ByMethod[m.Label()]; n > 0 {
			fmt.Fprintf(w, "  %-18s %d\n", m.Label(), n)
		}
	}
	fmt.Fprintf(w, "avg confidence: %.1f duration: %s\n", s.AvgConfidence(), s.Duration.Round(time.Millisecond))
}

// processBatch runs paths through p with bounded concurrency. Per-document
// failures are counted, never fatal; sv may be nil.
func processBatch(ctx context.Context, paths []string, concurrency int, p documentProcessor, sv outcomeSaver) *batchSummary {
	start := time.Now()
	sum := &batchSummary{Total: len(paths), ByMethod: map[string]int{}}
	if len(paths) == 0 {
		zap.L().Info("batch: no supported documents found")
		return sum
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("batch: processing",
		zap.Int("documents", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			doc, err := loadDocument(path)
			if err != nil {
				zap.L().Warn("batch: read failed", zap.String("path", path), zap.Error(err))
				sum.fail(false)
				return nil
			}
			outcome := p.ProcessDocument(gctx, doc)
			sum.add(outcome)

			if sv != nil {
				if _, err := sv.SaveOutcome(gctx, doc.Filename(), outcome); err != nil {
					zap.L().Error("batch: save failed", zap.String("path", path), zap.Error(err))
					sum.fail(true)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	sum.Duration = time.Since(start)
	zap.L().Info("batch: complete",
		zap.Int("processed", sum.Processed),
		zap.Int("read_errors", sum.ReadErr),
		zap.Int("store_errors", sum.StoreErr),
		zap.Float64("avg_confidence", sum.AvgConfidence()),
		zap.Duration("duration", sum.Duration),
	)
	return sum
}
