package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/candidstance/internal/pipeline"
	"github.com/ppiankov/candidstance/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple candidates from a file in parallel",
	Long: `Batch analyzes multiple candidates concurrently:
- Read candidate names from input file (one per line, # for comments)
- Analyze candidates in parallel with configurable worker count
- Search calls stay throttled across all workers
- Write a JSON and a Markdown report for each candidate

Example:
  candidstance batch candidates.txt
  candidstance batch candidates.txt --concurrency 4 --output-dir ./reports
  candidstance batch candidates.txt --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of candidates analyzed at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./candidstance-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 20*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the candidate cache (always regenerate)")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama, gemini)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(settings)
	if err != nil {
		return err
	}
	applyLLMFlags(&cfg)

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  CandidStance Batch Processing\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a, err := newApp(ctx, cfg, appOptions{NoCache: noCache})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	processor := worker.NewBatchProcessor(a.pipeline, concurrency)

	fmt.Fprintf(stderr, "⚙️  Analyzing candidates with %d workers...\n\n", concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cmd.OutOrStdout())
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Name, result.Error)
			continue
		}

		slug := sanitizeFilename(result.Analysis.CandidateName)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Analysis, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: failed to write JSON: %v\n", result.Name, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Analysis, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: failed to write Markdown: %v\n", result.Name, err)
			continue
		}

		successCount++
		origin := "generated"
		if result.Analysis.Cached {
			origin = "cached"
		}
		fmt.Fprintf(stderr, "✓ %s (%s)\n", result.Analysis.CandidateName, origin)
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d candidates\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d candidates failed", failureCount)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	".", "",
	" ", "-",
)

// sanitizeFilename turns a candidate name into a safe report file stem
func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = filenameReplacer.Replace(s)
	s = strings.Trim(s, "-_")

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "candidate"
	}

	return s
}
