package narrative

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// Template is one configured query against the narrative service. Priorities
// order execution (descending); follow-ups are issued only when the primary
// response clears the confidence gate.
type Template struct {
	ID        string   `yaml:"id"`
	Category  string   `yaml:"category"`
	Priority  int      `yaml:"priority"`
	Query     string   `yaml:"query"`
	FollowUps []string `yaml:"follow_ups"`
}

// DefaultTemplates is the built-in catalog. Phrasings are editorial and can
// be replaced wholesale via LoadTemplates; the categories and priorities are
// the contract the rest of the pipeline relies on.
var DefaultTemplates = []Template{
	{
		ID:       "geopolitical-risk",
		Category: "geopolitical",
		Priority: 100,
		Query:    "What geopolitical developments from the last two weeks are most likely to affect business aviation operations or international routing?",
		FollowUps: []string{
			"Which of these developments affect overflight or landing permissions?",
			"What is the expected duration of the most significant disruption?",
		},
	},
	{
		ID:       "fuel-market",
		Category: "fuel",
		Priority: 90,
		Query:    "How have jet fuel and crude oil markets moved recently, and what is the near-term outlook for aviation fuel costs?",
		FollowUps: []string{
			"Which regions show the largest jet fuel price divergence?",
		},
	},
	{
		ID:       "regulatory",
		Category: "regulatory",
		Priority: 80,
		Query:    "What new or pending aviation regulations, airspace restrictions, or customs changes should a business aviation operator track this month?",
	},
	{
		ID:       "business-travel-demand",
		Category: "demand",
		Priority: 70,
		Query:    "What are the current trends in corporate and private business travel demand across major markets?",
		FollowUps: []string{
			"Which client industries are driving the demand change?",
		},
	},
	{
		ID:       "economic-outlook",
		Category: "economic",
		Priority: 60,
		Query:    "Summarize the macroeconomic indicators most relevant to discretionary corporate travel spending right now.",
	},
}

// LoadTemplates reads a YAML catalog, returning templates sorted by priority
// descending. An empty path returns the built-in catalog.
func LoadTemplates(path string) ([]Template, error) {
	if path == "" {
		return sortedByPriority(DefaultTemplates), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog %s: %w", path, err)
	}
	var catalog struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}
	if len(catalog.Templates) == 0 {
		return nil, fmt.Errorf("template catalog %s contains no templates", path)
	}
	return sortedByPriority(catalog.Templates), nil
}

func sortedByPriority(in []Template) []Template {
	out := make([]Template, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
