// Package sector groups merged records into per-sector bundles with
// synthesized summaries, risks, and opportunities.
package sector

import (
	"sort"
	"strings"

	"aviation_intel/pkg/core/intel"
)

var riskIndicators = []string{
	"risk", "threat", "disruption", "shortage", "sanction", "restriction",
	"decline", "downturn", "delay", "volatility",
}

var opportunityIndicators = []string{
	"opportunity", "growth", "expansion", "recovery", "liberalising",
	"incentive", "demand increase", "improvement", "investment",
}

const (
	summaryTopK   = 3
	maxStatements = 3
)

// Organizer builds sector bundles from merged records.
type Organizer struct{}

func NewOrganizer() *Organizer { return &Organizer{} }

// Organize produces one bundle per sector in the closed enumeration, in
// stable enumeration order. A record participates in a sector's bundle when
// it is tagged with that sector or with general.
func (o *Organizer) Organize(records []intel.Record) []intel.SectorBundle {
	bundles := make([]intel.SectorBundle, 0, len(intel.AllSectors))
	for _, s := range intel.AllSectors {
		bundles = append(bundles, o.buildBundle(s, records))
	}
	return bundles
}

func (o *Organizer) buildBundle(s intel.Sector, records []intel.Record) intel.SectorBundle {
	var selected []intel.Record
	for _, r := range records {
		if hasSector(r, s) || hasSector(r, intel.SectorGeneral) {
			selected = append(selected, r)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RelevanceScore > selected[j].RelevanceScore
	})

	bundle := intel.SectorBundle{Sector: s, Records: selected}

	var summaryParts []string
	for i := 0; i < len(selected) && i < summaryTopK; i++ {
		if selected[i].SoWhat != "" {
			summaryParts = append(summaryParts, selected[i].SoWhat)
		}
	}
	bundle.Summary = strings.Join(summaryParts, " ")

	bundle.Risks = extractStatements(selected, riskIndicators)
	bundle.Opportunities = extractStatements(selected, opportunityIndicators)
	return bundle
}

func hasSector(r intel.Record, s intel.Sector) bool {
	for _, sec := range r.AffectedSectors {
		if sec == s {
			return true
		}
	}
	return false
}

// extractStatements collects so-what statements of records whose raw content
// matches any indicator, capped and de-duplicated by string equality.
func extractStatements(records []intel.Record, indicators []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range records {
		if len(out) >= maxStatements {
			break
		}
		if r.SoWhat == "" || seen[r.SoWhat] {
			continue
		}
		lower := strings.ToLower(r.RawContent)
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				out = append(out, r.SoWhat)
				seen[r.SoWhat] = true
				break
			}
		}
	}
	return out
}
