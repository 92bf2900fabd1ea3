package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/candidstance/internal/model"
)

// Analyzer analyzes one candidate
type Analyzer interface {
	Analyze(ctx context.Context, name string) (*model.Analysis, error)
}

// AnalyzeJob analyzes a single candidate name
type AnalyzeJob struct {
	Index    int
	Name     string
	Analyzer Analyzer
}

// Execute executes the analysis
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	analysis, err := j.Analyzer.Analyze(ctx, j.Name)
	return &AnalyzeResult{
		Index:    j.Index,
		Name:     j.Name,
		Analysis: analysis,
		Error:    err,
	}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Index    int
	Name     string
	Analysis *model.Analysis
	Error    error
}

// GetError returns the error from the analysis
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple candidates concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessNames analyzes names concurrently and returns results in input order
func (b *BatchProcessor) ProcessNames(ctx context.Context, names []string) []*AnalyzeResult {
	if len(names) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, name := range names {
		if !pool.Submit(&AnalyzeJob{Index: i, Name: name, Analyzer: b.analyzer}) {
			break
		}
	}

	ordered := make([]*AnalyzeResult, len(names))
	for _, result := range pool.Wait() {
		r := result.(*AnalyzeResult)
		ordered[r.Index] = r
	}

	// Names never submitted because ctx was cancelled
	for i, r := range ordered {
		if r == nil {
			ordered[i] = &AnalyzeResult{Index: i, Name: names[i], Error: ctx.Err()}
		}
	}

	return ordered
}

// ProcessFile reads candidate names from a file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	names, err := ReadNamesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}

	return b.ProcessNames(ctx, names), nil
}

// ReadNamesFromFile reads candidate names (one per line), skipping blanks,
// comments and names that normalize to an already listed candidate
func ReadNamesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var names []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := model.NormalizeName(line)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return names, nil
}
