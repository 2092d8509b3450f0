package augment

import (
	"fmt"
	"strings"

	"aviation_intel/pkg/core/intel"
)

const (
	fallbackMaxFindings = 5
	fallbackMaxContent  = 300
)

// Static watch factors used to pad the fallback summary to the three-factor
// minimum when the run produced too few macro records.
var defaultWatchFactors = []intel.WatchFactor{
	{
		Indicator:    "Jet fuel spot prices",
		WhatToWatch:  "Sustained moves above recent trading ranges.",
		WhyItMatters: "Fuel is the largest variable cost line for charter operations.",
	},
	{
		Indicator:    "Federal funds rate trajectory",
		WhatToWatch:  "Guidance shifts at upcoming policy meetings.",
		WhyItMatters: "Financing costs drive aircraft acquisition and fleet expansion decisions.",
	},
	{
		Indicator:    "Geopolitical developments in active conflict regions",
		WhatToWatch:  "New sanctions, airspace closures, or overflight restrictions.",
		WhyItMatters: "Routing changes add cost and complexity to international operations.",
	},
}

// FallbackExecSummary builds the executive summary deterministically from the
// merged records, with no external generation.
func FallbackExecSummary(records []intel.Record) intel.ExecSummary {
	top := selectTopRecords(records, promptTopK)
	summary := intel.ExecSummary{}

	for _, r := range top {
		if r.SoWhat != "" {
			summary.BottomLine = append(summary.BottomLine, r.SoWhat)
		}
		if len(summary.BottomLine) == 2 {
			break
		}
	}
	if len(summary.BottomLine) == 0 {
		summary.BottomLine = []string{"Monitor the intelligence feed; no high-relevance developments this run."}
	}

	seenCategory := make(map[string]bool)
	for _, r := range top {
		if len(summary.KeyFindings) >= fallbackMaxFindings {
			break
		}
		if seenCategory[r.Category] {
			continue
		}
		seenCategory[r.Category] = true

		bullets := r.ActionItems
		if len(bullets) > 3 {
			bullets = bullets[:3]
		}
		summary.KeyFindings = append(summary.KeyFindings, intel.Finding{
			Subheader: titleCategory(r.Category),
			Content:   truncate(r.ProcessedContent, fallbackMaxContent),
			Bullets:   bullets,
		})
	}

	for _, r := range top {
		if r.SourceType != intel.SourceMacro || r.Macro == nil {
			continue
		}
		summary.WatchFactors = append(summary.WatchFactors, intel.WatchFactor{
			Indicator:    r.Macro.SeriesName,
			WhatToWatch:  fmt.Sprintf("Changes in %s readings.", strings.ToLower(r.Macro.SeriesName)),
			WhyItMatters: r.SoWhat,
		})
	}
	for _, wf := range defaultWatchFactors {
		if len(summary.WatchFactors) >= 3 {
			break
		}
		summary.WatchFactors = append(summary.WatchFactors, wf)
	}

	return summary
}

// FallbackSoWhat returns the record's existing so-what statement, or a
// category-derived template when the normalizer produced none.
func FallbackSoWhat(r intel.Record) string {
	if r.SoWhat != "" {
		return r.SoWhat
	}
	return fmt.Sprintf("Monitor %s developments for operational impact on business aviation.",
		strings.ToLower(titleCategory(r.Category)))
}

func titleCategory(category string) string {
	if category == "" {
		return "General"
	}
	words := strings.FieldsFunc(category, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
