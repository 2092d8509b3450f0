package intel

import "strings"

// actionPattern maps a text trigger to an operator-facing imperative.
type actionPattern struct {
	trigger string
	action  string
}

// Ordered so the most specific operational guidance surfaces first.
var actionPatterns = []actionPattern{
	{"fuel", "Review fuel hedging position and trip cost assumptions."},
	{"sanction", "Screen upcoming trip requests against updated sanctions lists."},
	{"export control", "Confirm parts and avionics orders are unaffected by new export controls."},
	{"tariff", "Assess exposure of parts procurement to announced tariffs."},
	{"interest rate", "Revisit aircraft financing terms before next renewal window."},
	{"inflation", "Update client cost projections for inflation-sensitive line items."},
	{"restriction", "Verify routing and overflight permissions for affected jurisdictions."},
	{"demand", "Adjust fleet availability planning for shifting charter demand."},
	{"regulation", "Brief operations on pending regulatory changes."},
	{"shortage", "Check supplier lead times against current shortage reports."},
}

const maxActionItems = 3

// GenerateActionItems derives up to three imperative action items from text
// using the pattern table. Duplicate actions are suppressed.
func GenerateActionItems(text string) []string {
	lower := strings.ToLower(text)

	var items []string
	seen := make(map[string]bool)
	for _, p := range actionPatterns {
		if len(items) >= maxActionItems {
			break
		}
		if strings.Contains(lower, p.trigger) && !seen[p.action] {
			items = append(items, p.action)
			seen[p.action] = true
		}
	}
	return items
}
