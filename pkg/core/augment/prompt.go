package augment

import (
	"fmt"
	"sort"
	"strings"

	"aviation_intel/pkg/core/intel"
)

const promptTopK = 20

const execSummarySystemPrompt = "You are a senior intelligence analyst writing an executive brief " +
	"for business aviation operators. You write in an authoritative analytical voice. " +
	"You never use first-person language. You only cite specific numbers that appear " +
	"in the provided intelligence items."

const soWhatSystemPrompt = "You are a senior intelligence analyst. For the given intelligence item, " +
	"write one or two sentences stating the operational implication for business " +
	"aviation operators. No first-person language. Use only facts from the item."

// selectTopRecords returns the top K records by relevance × confidence,
// highest first. The input slice is not reordered.
func selectTopRecords(records []intel.Record, k int) []intel.Record {
	sorted := make([]intel.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RelevanceScore*sorted[i].Confidence > sorted[j].RelevanceScore*sorted[j].Confidence
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// topRecordIndexes returns the indexes of the top K records under the same
// relevance × confidence ranking selectTopRecords uses, restored to their
// original slice order.
func topRecordIndexes(records []intel.Record, k int) []int {
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := records[idx[a]], records[idx[b]]
		return ra.RelevanceScore*ra.Confidence > rb.RelevanceScore*rb.Confidence
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	sort.Ints(idx)
	return idx
}

// buildExecSummaryPrompt formats the sanitized top records into the single
// generation prompt, with the per-section format contract the parser expects.
func buildExecSummaryPrompt(records []intel.Record) string {
	var b strings.Builder

	b.WriteString("Produce an executive summary from the intelligence items below.\n\n")
	b.WriteString("Output exactly three sections with these headers:\n\n")
	b.WriteString("BOTTOM LINE\n")
	b.WriteString("1-2 terse imperative statements, one per line.\n\n")
	b.WriteString("KEY FINDINGS\n")
	b.WriteString("3-5 findings. For each finding emit:\n")
	b.WriteString("[SUBHEADER: short finding title]\n")
	b.WriteString("[CONTENT: one paragraph of analysis]\n")
	b.WriteString("[BULLET: supporting point] (up to 3 per finding)\n\n")
	b.WriteString("WATCH FACTORS\n")
	b.WriteString("At least 3 factors. For each factor emit:\n")
	b.WriteString("[INDICATOR: the metric or situation to track]\n")
	b.WriteString("[WHAT: what movement to watch for]\n")
	b.WriteString("[WHY: why it matters to operators]\n\n")
	b.WriteString("Style: authoritative analytical voice. No first-person language. ")
	b.WriteString("Cite specific numbers only from the items provided.\n\n")
	b.WriteString("=== INTELLIGENCE ITEMS ===\n")

	for i, r := range records {
		sectors := make([]string, len(r.AffectedSectors))
		for j, s := range r.AffectedSectors {
			sectors[j] = string(s)
		}
		b.WriteString(fmt.Sprintf("%d. [%s/%s] %s\n", i+1, r.SourceType, r.Category, r.ProcessedContent))
		if r.SoWhat != "" {
			b.WriteString(fmt.Sprintf("   Implication: %s\n", r.SoWhat))
		}
		if len(sectors) > 0 {
			b.WriteString(fmt.Sprintf("   Sectors: %s\n", strings.Join(sectors, ", ")))
		}
	}

	return b.String()
}

func buildSoWhatPrompt(r intel.Record) string {
	return fmt.Sprintf("Intelligence item [%s/%s]:\n%s\n\nState the operational implication.",
		r.SourceType, r.Category, r.ProcessedContent)
}
