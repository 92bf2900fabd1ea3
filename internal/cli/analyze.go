package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/candidstance/internal/model"
	"github.com/ppiankov/candidstance/internal/pipeline"
)

var (
	jsonOut        string
	mdOut          string
	noCache        bool
	llmProvider    string
	llmModel       string
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <candidate name>",
	Short: "Analyze one candidate's political stances",
	Long: `Analyze runs the complete pipeline for one candidate:
- Validate and correct the candidate name
- Return a cached analysis when one is less than 30 days old
- Generate one stance per political issue
- Search the web for each stance and keep the best scored sources

Example:
  candidstance analyze "Kamala Harris"
  candidstance analyze "jd vance" --json vance.json --md vance.md
  candidstance analyze "Nikki Haley" --llm-provider anthropic --no-cache`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&jsonOut, "json", "", "write the analysis as JSON to this path")
	analyzeCmd.Flags().StringVar(&mdOut, "md", "", "write a Markdown report to this path")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the candidate cache (always regenerate)")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama, gemini)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "timeout for the whole analysis")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	cfg, err := loadConfig(settings)
	if err != nil {
		return err
	}
	applyLLMFlags(&cfg)

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, appOptions{NoCache: noCache})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n⚙️  Analyzing %q with %s\n\n", name, a.provider.Name())

	var result *model.Analysis
	var streamErr error
	a.pipeline.AnalyzeStream(ctx, name, func(ev model.Event) {
		switch ev.Type {
		case model.EventStatus:
			fmt.Fprintf(stderr, "  %s...\n", ev.Message)
		case model.EventProgress:
			fmt.Fprintf(stderr, "  [%d/%d] %s\n", ev.Index, ev.Total, ev.Issue)
		case model.EventComplete:
			result = ev.Data
		case model.EventError:
			streamErr = errors.New(ev.Error)
		}
	})
	if streamErr != nil {
		return streamErr
	}
	if result == nil {
		return fmt.Errorf("analysis produced no result")
	}

	renderer := pipeline.NewRenderer(cmd.OutOrStdout())
	if jsonOut != "" {
		if err := renderer.RenderJSON(result, jsonOut); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		fmt.Fprintf(stderr, "✓ JSON written to %s\n", jsonOut)
	}
	if mdOut != "" {
		if err := renderer.RenderMarkdown(result, mdOut); err != nil {
			return fmt.Errorf("write Markdown: %w", err)
		}
		fmt.Fprintf(stderr, "✓ Markdown written to %s\n", mdOut)
	}
	if jsonOut == "" && mdOut == "" {
		fmt.Fprint(cmd.OutOrStdout(), pipeline.Markdown(result))
	}

	fmt.Fprintln(stderr)
	renderer.RenderSummary(result)
	return nil
}

// applyLLMFlags lets per-run flags override the configured provider
func applyLLMFlags(cfg *model.Config) {
	if llmProvider != "" && !strings.EqualFold(llmProvider, cfg.LLM.Provider) {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey = ""
		cfg.LLM.BaseURL = ""
		cfg.LLM.Model = ""
		resolveProviderEnv(cfg)
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
}
