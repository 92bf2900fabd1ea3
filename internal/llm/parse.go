package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ppiankov/candidstance/internal/model"
)

// ParseError reports generator output that could not be coerced into stances
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse stances: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse stances: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// generatedStance is one element of the generator's JSON array. Sources are
// accepted but discarded: only verified sources are ever cited.
type generatedStance struct {
	Issue   string          `json:"issue"`
	Stance  string          `json:"stance"`
	Sources json.RawMessage `json:"sources,omitempty"`
}

// ParseStances extracts stances from loosely formatted generator output.
// Labels are matched against the fixed issue list; unknown labels are
// dropped and duplicates keep the first occurrence. The result follows the
// order of model.Issues.
func ParseStances(text string) ([]model.PoliticalStance, error) {
	body := extractArray(stripFences(text))
	if body == "" {
		return nil, &ParseError{Reason: "no JSON array in response"}
	}

	raw, err := decodeLenient(body)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.PoliticalStance, len(raw))
	for _, item := range raw {
		issue, ok := model.LookupIssue(item.Issue)
		if !ok {
			continue
		}
		if _, dup := byID[issue.ID]; dup {
			continue
		}

		stance := strings.TrimSpace(item.Stance)
		if stance == "" {
			byID[issue.ID] = model.NoInformationStance(issue.Name)
			continue
		}
		byID[issue.ID] = model.PoliticalStance{
			Issue:   issue.Name,
			Stance:  stance,
			Sources: []model.Source{},
		}
	}

	stances := make([]model.PoliticalStance, 0, len(byID))
	for _, issue := range model.Issues {
		if s, ok := byID[issue.ID]; ok {
			stances = append(stances, s)
		}
	}
	return stances, nil
}

// decodeLenient tries strict decoding, then repair, then repair after
// rejoining the lines.
func decodeLenient(body string) ([]generatedStance, error) {
	var out []generatedStance

	firstErr := json.Unmarshal([]byte(body), &out)
	if firstErr == nil {
		return out, nil
	}

	if repaired, err := jsonrepair.JSONRepair(body); err == nil {
		out = nil
		if err := json.Unmarshal([]byte(repaired), &out); err == nil {
			return out, nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(rejoinLines(body))
	if err != nil {
		return nil, &ParseError{Reason: "repair failed", Err: firstErr}
	}
	out = nil
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, &ParseError{Reason: "repaired output is not a stance array", Err: err}
	}
	return out, nil
}

// stripFences removes markdown code fences around the payload
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "```") {
		return text
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// extractArray slices from the first '[' to the last ']'. An unterminated
// array is returned from its opening bracket so repair can close it.
func extractArray(text string) string {
	start := strings.Index(text, "[")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(text, "]")
	if end < start {
		return text[start:]
	}
	return text[start : end+1]
}

func rejoinLines(text string) string {
	lines := strings.Split(text, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
