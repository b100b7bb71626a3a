package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/zkloci/internal/model"
	"github.com/ppiankov/zkloci/internal/pipeline"
	"github.com/ppiankov/zkloci/internal/worker"
)

// localScope is the limiter scope used when no LLM provider is configured
const localScope = "local"

var (
	concurrency  int
	outputPath   string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer many questions from a file in parallel",
	Long: `Batch answers questions concurrently:
- Read questions from input file (one per line, # comments and blank lines skipped)
- Answer them in parallel with a configurable worker count
- Calls to the LLM provider are rate limited per provider
- Write one JSON object per question (JSON lines) in input order

Example:
  zkloci batch questions.txt
  zkloci batch questions.txt --concurrency 8 --output answers.jsonl
  zkloci batch questions.txt --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file for JSON lines (default stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	cfg := currentConfig()

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  zk-loci Batch Questions\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)

	rt, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer rt.Close()

	// Only LLM calls have an upstream budget to protect
	var limiter *worker.Limiter
	scope := localScope
	if rt.LLM.IsEnabled() {
		scope = rt.LLM.ProviderName()
		limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
		fmt.Fprintf(os.Stderr, "  LLM:          %s (%.1f req/s, burst %d)\n", scope, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}
	fmt.Fprintf(os.Stderr, "  Store:        %s\n", rt.Reader.Status())
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(rt, workers, limiter, scope)

	fmt.Fprintf(os.Stderr, "⚙️  Answering questions...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := worker.WriteJSONLines(out, results); err != nil {
		return err
	}

	s := summarizeBatch(results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d questions\n", s.total)
	fmt.Fprintf(os.Stderr, "  Analytics:  %d (%d on fallback stats)\n", s.analytics, s.fallback)
	fmt.Fprintf(os.Stderr, "  Generic:    %d\n", s.generic)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", s.failures)
	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "  Output:     %s\n", outputPath)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

type batchSummary struct {
	total     int
	analytics int
	fallback  int
	generic   int
	failures  int
}

func summarizeBatch(results []*worker.QuestionResult) batchSummary {
	s := batchSummary{total: len(results)}
	for _, r := range results {
		if r.Error != nil || r.Response == nil {
			s.failures++
			continue
		}
		switch r.Response.Route {
		case model.RouteAnalytics:
			s.analytics++
			if r.Response.RawStats != nil && r.Response.RawStats.Mode == model.ModeFallback {
				s.fallback++
			}
		default:
			s.generic++
		}
	}
	return s
}
