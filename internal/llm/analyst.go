package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/candidstance/internal/logging"
	"github.com/ppiankov/candidstance/internal/model"
)

// ErrInvalidCandidate is returned when the input does not name a real political figure
var ErrInvalidCandidate = errors.New("not a recognized political candidate")

// InvalidMarker is the literal the name-correction prompt answers with for bad input
const InvalidMarker = "INVALID"

const analystSystem = "You are a nonpartisan political research assistant. " +
	"You report candidates' public positions neutrally and never invent facts."

// Analyst turns provider completions into candidate names and stances
type Analyst struct {
	provider Provider
	log      *logrus.Entry
}

// NewAnalyst creates an analyst over a provider
func NewAnalyst(provider Provider, log *logrus.Entry) *Analyst {
	if log == nil {
		log = logging.Discard()
	}
	return &Analyst{
		provider: provider,
		log:      log.WithField("provider", provider.Name()),
	}
}

// ProviderName returns the name of the underlying provider
func (a *Analyst) ProviderName() string {
	return a.provider.Name()
}

// CorrectName returns the canonical full name for free-text input
func (a *Analyst) CorrectName(ctx context.Context, input string) (string, error) {
	resp, err := a.provider.Complete(ctx, CompletionRequest{
		System:      analystSystem,
		Prompt:      BuildNamePrompt(input),
		MaxTokens:   50,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("correct name: %w", err)
	}

	name := cleanName(resp.Text)
	if name == "" || strings.EqualFold(name, InvalidMarker) {
		a.log.WithField("input", input).Info("name rejected by correction step")
		return "", ErrInvalidCandidate
	}

	return name, nil
}

// GenerateStances asks for every issue in one completion. Issues the answer
// does not cover are returned as missing.
func (a *Analyst) GenerateStances(ctx context.Context, name string, issues []model.Issue) ([]model.PoliticalStance, []model.Issue, error) {
	resp, err := a.provider.Complete(ctx, CompletionRequest{
		System: analystSystem,
		Prompt: BuildStancesPrompt(name, issues),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("generate stances: %w", err)
	}

	parsed, err := ParseStances(resp.Text)
	if err != nil {
		return nil, nil, err
	}

	byName := make(map[string]model.PoliticalStance, len(parsed))
	for _, s := range parsed {
		byName[s.Issue] = s
	}

	var stances []model.PoliticalStance
	var missing []model.Issue
	for _, issue := range issues {
		if s, ok := byName[issue.Name]; ok {
			stances = append(stances, s)
		} else {
			missing = append(missing, issue)
		}
	}

	a.log.WithFields(logrus.Fields{
		"candidate": name,
		"stances":   len(stances),
		"missing":   len(missing),
		"tokens":    resp.TokensUsed,
	}).Debug("generated stances")

	return stances, missing, nil
}

// GenerateStance asks for a single issue
func (a *Analyst) GenerateStance(ctx context.Context, name string, issue model.Issue) (model.PoliticalStance, error) {
	resp, err := a.provider.Complete(ctx, CompletionRequest{
		System:    analystSystem,
		Prompt:    BuildStancesPrompt(name, []model.Issue{issue}),
		MaxTokens: 400,
	})
	if err != nil {
		return model.PoliticalStance{}, fmt.Errorf("generate stance for %s: %w", issue.Name, err)
	}

	parsed, err := ParseStances(resp.Text)
	if err != nil {
		return model.PoliticalStance{}, err
	}
	for _, s := range parsed {
		if s.Issue == issue.Name {
			return s, nil
		}
	}

	return model.NoInformationStance(issue.Name), nil
}

// BuildNamePrompt builds the name-correction prompt
func BuildNamePrompt(input string) string {
	var b strings.Builder
	b.WriteString("The following text is meant to identify a political candidate or public official.\n")
	b.WriteString("Correct any misspelling and return only their full, commonly used name.\n")
	b.WriteString("If the text does not identify a real political figure, return exactly ")
	b.WriteString(InvalidMarker)
	b.WriteString(".\nDo not add any other words or punctuation.\n\n")
	fmt.Fprintf(&b, "Text: %s\n", strings.TrimSpace(input))
	return b.String()
}

// BuildStancesPrompt builds the stance generation prompt
func BuildStancesPrompt(name string, issues []model.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summarize the public political positions of %s on the issues below.\n\n", name)
	b.WriteString("## Issues\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s: %s\n", issue.Name, issue.Description)
	}

	b.WriteString("\n## Rules\n")
	b.WriteString("1. One or two neutral sentences per issue, based on statements, votes or platform documents.\n")
	fmt.Fprintf(&b, "2. If you have no reliable information, the stance must be exactly %q.\n", model.NoInformation)
	b.WriteString("3. Use the issue names exactly as written above.\n")
	b.WriteString("4. Do not include URLs or citations.\n")

	b.WriteString("\n## Output\n")
	b.WriteString("Respond with only a JSON array, no markdown:\n")
	b.WriteString(`[{"issue": "<issue name>", "stance": "<summary>"}]`)
	b.WriteString("\n")

	return b.String()
}

// cleanName strips quotes, trailing punctuation and extra lines
func cleanName(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimLeft(text, " \t\"'`*")
	text = strings.TrimRight(text, " \t\"'`*.!?,;:")
	return strings.Join(strings.Fields(text), " ")
}
