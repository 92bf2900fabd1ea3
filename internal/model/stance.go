package model

import "strings"

// NoInformation is the stance text used when nothing is known about a
// candidate's position on an issue.
const NoInformation = "No Information Found"

// PoliticalStance is a candidate's position on a single issue.
// Confidence is the 0-100 score of the best cited source, absent when
// nothing credible backs the stance.
type PoliticalStance struct {
	Issue      string   `json:"issue" bson:"issue"`
	Stance     string   `json:"stance" bson:"stance"`
	Sources    []Source `json:"sources" bson:"sources"`
	Confidence float64  `json:"confidence,omitempty" bson:"confidence,omitempty"`
}

// HasNoInformation reports whether the stance is the no-information sentinel
func (s PoliticalStance) HasNoInformation() bool {
	return strings.TrimSpace(s.Stance) == NoInformation
}

// NoInformationStance returns the sentinel stance for an issue
func NoInformationStance(issue string) PoliticalStance {
	return PoliticalStance{
		Issue:   issue,
		Stance:  NoInformation,
		Sources: []Source{},
	}
}

// Issue is one of the fixed policy areas every analysis covers
type Issue struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"` // Lowercase title terms that signal relevance
}

// Issues is the ordered list of policy areas. Output follows this order.
var Issues = []Issue{
	{
		ID:          "economy",
		Name:        "Economy & Taxes",
		Description: "Views on taxation, government spending, and economic policy",
		Category:    "economic",
		Keywords:    []string{"economy", "tax", "inflation", "budget"},
	},
	{
		ID:          "healthcare",
		Name:        "Healthcare & Insurance",
		Description: "Positions on healthcare system, insurance, and medical access",
		Category:    "social",
		Keywords:    []string{"health", "medicare", "medicaid", "insurance"},
	},
	{
		ID:          "abortion",
		Name:        "Abortion & Reproductive Rights",
		Description: "Stance on abortion access and reproductive healthcare",
		Category:    "social",
		Keywords:    []string{"abortion", "reproductive", "roe v. wade"},
	},
	{
		ID:          "climate",
		Name:        "Climate & Environment",
		Description: "Views on climate change and environmental protection",
		Category:    "environmental",
		Keywords:    []string{"climate", "environment", "energy", "emissions"},
	},
	{
		ID:          "elections",
		Name:        "Elections & Voting Rights",
		Description: "Positions on voting access, election security, and democratic processes",
		Category:    "democratic",
		Keywords:    []string{"voting", "voter", "ballot"},
	},
	{
		ID:          "gun-control",
		Name:        "Gun Control & Public Safety",
		Description: "Stance on firearms regulation and public safety measures",
		Category:    "security",
		Keywords:    []string{"gun", "firearm", "second amendment"},
	},
	{
		ID:          "israel-palestine",
		Name:        "Israel-Palestine Conflict",
		Description: "Position on the Israeli-Palestinian conflict and Middle East policy",
		Category:    "foreign-policy",
		Keywords:    []string{"israel", "israeli", "palestine", "palestinian", "gaza"},
	},
	{
		ID:          "russia-ukraine",
		Name:        "Russia-Ukraine War",
		Description: "Views on the Russia-Ukraine conflict and US involvement",
		Category:    "foreign-policy",
		Keywords:    []string{"ukraine", "russia", "russian", "putin"},
	},
	{
		ID:          "technology",
		Name:        "Technology & Privacy",
		Description: "Stance on tech regulation, data privacy, and digital rights",
		Category:    "technology",
		Keywords:    []string{"technology", "privacy", "big tech", "artificial intelligence"},
	},
	{
		ID:          "immigration",
		Name:        "Immigration & Border Security",
		Description: "Positions on immigration policy and border enforcement",
		Category:    "social",
		Keywords:    []string{"immigration", "border", "migrant", "asylum"},
	},
	{
		ID:          "lgbtq",
		Name:        "LGBTQ+ Rights",
		Description: "Views on LGBTQ+ equality and anti-discrimination measures",
		Category:    "social",
		Keywords:    []string{"lgbtq", "gay", "transgender", "same-sex"},
	},
	{
		ID:          "education",
		Name:        "Education",
		Description: "Positions on education funding, policy, and student debt",
		Category:    "social",
		Keywords:    []string{"education", "school", "student", "teacher"},
	},
}

// LookupIssue resolves an issue by id or case-insensitive name
func LookupIssue(label string) (Issue, bool) {
	label = strings.TrimSpace(label)
	for _, issue := range Issues {
		if strings.EqualFold(issue.ID, label) || strings.EqualFold(issue.Name, label) {
			return issue, true
		}
	}
	return Issue{}, false
}
