package trade

import (
	"fmt"
	"strings"
	"time"

	"aviation_intel/pkg/core/intel"
)

// aviationSectorKeywords marks an intervention as aviation-adjacent when any
// appears in its affected-sector list.
var aviationSectorKeywords = []string{
	"air transport", "aircraft", "aerospace", "aviation", "airport", "jet",
}

// Normalizer lifts raw interventions into Intelligence Records.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer { return &Normalizer{now: time.Now} }

// SetClock overrides the freshness clock, for tests.
func (n *Normalizer) SetClock(now func() time.Time) { n.now = now }

// Normalize converts one intervention into a record. Category is the query
// family name that produced it.
func (n *Normalizer) Normalize(iv Intervention, category string) intel.Record {
	text := strings.TrimSpace(iv.Title + ". " + iv.Description)
	aviationRelevant := isAviationRelevant(iv)

	details := &intel.TradeDetails{
		InterventionID:   iv.InterventionID,
		Implementing:     iv.Implementing,
		Affected:         iv.Affected,
		InterventionType: iv.InterventionType,
		Evaluation:       iv.Evaluation,
	}
	if d, err := time.Parse("2006-01-02", iv.DateAnnounced); err == nil {
		details.DateAnnounced = d
	}
	if d, err := time.Parse("2006-01-02", iv.DateImplemented); err == nil {
		details.DateImplemented = d
		details.HasImplemented = true
	}

	rec := intel.Record{
		RawContent:       text,
		ProcessedContent: processedText(iv),
		Category:         category,
		SourceType:       intel.SourceTrade,
		Trade:            details,
	}
	if iv.SourceURL != "" {
		rec.Sources = []map[string]interface{}{{"url": iv.SourceURL, "intervention_id": iv.InterventionID}}
	}

	rec.RelevanceScore = n.relevance(iv, details, aviationRelevant)
	if len(rec.Sources) > 0 {
		rec.Confidence = 0.9
	} else {
		rec.Confidence = 0.8
	}
	rec.AffectedSectors = intel.AssignSectors(rec.ProcessedContent, rec.RelevanceScore)
	rec.ActionItems = intel.GenerateActionItems(rec.ProcessedContent)
	rec.SoWhat = soWhat(iv)
	return rec
}

// relevance implements the trade scoring policy: base 0.5, evaluation and
// sector bonuses, and a freshness adjustment keyed on implementation date.
func (n *Normalizer) relevance(iv Intervention, details *intel.TradeDetails, aviationRelevant bool) float64 {
	score := 0.5

	switch strings.ToLower(iv.Evaluation) {
	case "harmful", "red":
		score += 0.3
	case "liberalising":
		score += 0.2
	}

	if aviationRelevant {
		score += 0.2
	}

	if details.HasImplemented {
		age := n.now().Sub(details.DateImplemented)
		switch {
		case age < 30*24*time.Hour:
			score += 0.3
		case age < 60*24*time.Hour:
			score += 0.2
		case age < 90*24*time.Hour:
			score += 0.1
		case age < 180*24*time.Hour:
			// no adjustment
		case age < 365*24*time.Hour:
			if !aviationRelevant {
				score -= 0.1
			}
		default:
			if !aviationRelevant {
				score -= 0.2
			}
		}
	}

	return intel.Clamp01(score)
}

func isAviationRelevant(iv Intervention) bool {
	for _, sector := range iv.AffectedSectors {
		lower := strings.ToLower(sector)
		for _, kw := range aviationSectorKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func processedText(iv Intervention) string {
	var parts []string
	if iv.Title != "" {
		parts = append(parts, iv.Title)
	}
	if iv.Description != "" {
		parts = append(parts, iv.Description)
	}
	if len(iv.Implementing) > 0 {
		parts = append(parts, "Implemented by "+strings.Join(iv.Implementing, ", ")+".")
	}
	if len(iv.Affected) > 0 {
		parts = append(parts, "Affects "+strings.Join(iv.Affected, ", ")+".")
	}
	return strings.Join(parts, " ")
}

// soWhat chooses operator-facing phrasing by intervention-type keyword, with
// evaluation-based phrasing as the fallback.
func soWhat(iv Intervention) string {
	lower := strings.ToLower(iv.InterventionType)
	jurisdictions := strings.Join(iv.Implementing, ", ")
	if jurisdictions == "" {
		jurisdictions = "the implementing jurisdictions"
	}

	switch {
	case strings.Contains(lower, "sanction") || strings.Contains(lower, "export"):
		return fmt.Sprintf("New sanctions or export controls from %s may restrict parts sourcing, payments, or permissible destinations; screen affected routes and counterparties.", jurisdictions)
	case strings.Contains(lower, "tariff") || strings.Contains(lower, "import"):
		return fmt.Sprintf("Tariff or import measures from %s can raise acquisition and maintenance costs; review procurement exposure.", jurisdictions)
	case strings.Contains(lower, "capital"):
		return fmt.Sprintf("Capital measures from %s may affect cross-border payments and aircraft financing; confirm settlement paths with finance partners.", jurisdictions)
	case strings.Contains(lower, "technology") || strings.Contains(lower, "local content"):
		return fmt.Sprintf("Technology or local-content requirements from %s can complicate avionics upgrades and MRO sourcing; verify supplier compliance.", jurisdictions)
	case strings.Contains(lower, "subsidy") || strings.Contains(lower, "grant"):
		return fmt.Sprintf("Subsidy programs from %s may shift competitive dynamics among carriers and suppliers in affected markets.", jurisdictions)
	}

	switch strings.ToLower(iv.Evaluation) {
	case "harmful", "red":
		return fmt.Sprintf("A trade measure rated harmful from %s warrants a near-term review of exposed operations.", jurisdictions)
	case "liberalising", "green":
		return fmt.Sprintf("A liberalising trade measure from %s may open routing or sourcing options worth evaluating.", jurisdictions)
	default:
		return fmt.Sprintf("A trade intervention from %s may affect operations in the listed jurisdictions; assess exposure.", jurisdictions)
	}
}
