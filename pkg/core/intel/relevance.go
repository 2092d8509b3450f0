package intel

import "strings"

// Keyword tiers for the aviation-domain relevance policy. Each tier
// contributes a fixed weight per matched term up to the tier cap.
var (
	directAviationTerms = []string{
		"aviation", "aircraft", "airline", "airport", "business jet",
		"private jet", "charter flight", "jet fuel", "faa", "air travel",
		"airspace", "aerospace",
	}
	indirectAviationTerms = []string{
		"travel", "tourism", "transportation", "logistics", "fuel price",
		"oil price", "mobility", "hospitality",
	}
	businessImpactTerms = []string{
		"cost", "revenue", "demand", "investment", "growth", "recession",
		"tariff", "regulation", "supply chain", "interest rate",
	}
	riskOpportunityTerms = []string{
		"risk", "opportunity", "disruption", "shortage", "expansion",
		"sanction", "restriction", "subsidy", "incentive",
	}
)

type relevanceTier struct {
	terms  []string
	weight float64
	cap    float64
}

var relevanceTiers = []relevanceTier{
	{directAviationTerms, 0.15, 0.4},
	{indirectAviationTerms, 0.10, 0.2},
	{businessImpactTerms, 0.08, 0.2},
	{riskOpportunityTerms, 0.05, 0.2},
}

// AviationRelevance scores text against the keyword-weighted aviation policy
// shared by all three normalizers. The result is clamped to [0,1].
func AviationRelevance(text string) float64 {
	lower := strings.ToLower(text)

	var total float64
	for _, tier := range relevanceTiers {
		var tierScore float64
		for _, term := range tier.terms {
			if strings.Contains(lower, term) {
				tierScore += tier.weight
			}
		}
		if tierScore > tier.cap {
			tierScore = tier.cap
		}
		total += tierScore
	}

	return Clamp01(total)
}
