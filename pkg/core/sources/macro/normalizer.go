package macro

import (
	"fmt"
	"strings"

	"aviation_intel/pkg/core/intel"
)

// macroConfidence is fixed: official statistical series.
const macroConfidence = 0.95

// seriesWeights adds series-specific relevance on top of the shared keyword
// policy. Jet fuel dominates; rates and inflation carry most of the rest.
var seriesWeights = map[string]float64{
	"DJFUELUSGULF":    0.4,
	"DCOILWTICO":      0.25,
	"GASREGW":         0.25,
	"FEDFUNDS":        0.3,
	"DGS10":           0.3,
	"CPIAUCSL":        0.25,
	"PCEPI":           0.25,
	"GDP":             0.2,
	"A191RL1Q225SBEA": 0.2,
	"UNRATE":          0.15,
	"PAYEMS":          0.15,
	"UMCSENT":         0.15,
}

// seriesSectors restricts high-signal series to their natural sectors so one
// indicator does not fan out into every sector bundle.
var seriesSectors = map[string][]intel.Sector{
	"DJFUELUSGULF":    {intel.SectorGeneral, intel.SectorEnergy},
	"DCOILWTICO":      {intel.SectorGeneral, intel.SectorEnergy},
	"GASREGW":         {intel.SectorEnergy},
	"FEDFUNDS":        {intel.SectorGeneral, intel.SectorFinance, intel.SectorRealEstate},
	"DGS10":           {intel.SectorFinance, intel.SectorRealEstate},
	"CPIAUCSL":        {intel.SectorGeneral},
	"PCEPI":           {intel.SectorGeneral},
	"GDP":             {intel.SectorGeneral},
	"A191RL1Q225SBEA": {intel.SectorGeneral},
	"UNRATE":          {intel.SectorGeneral},
	"PAYEMS":          {intel.SectorGeneral},
	"UMCSENT":         {intel.SectorGeneral, intel.SectorEntertainment},
}

const macroBaseRelevance = 0.3

// Normalizer lifts observations into Intelligence Records.
type Normalizer struct{}

func NewNormalizer() *Normalizer { return &Normalizer{} }

// Normalize converts one observation into a record. Category is the fetch
// category that produced it.
func (n *Normalizer) Normalize(obs Observation, category string) intel.Record {
	formatted := FormatValue(obs)
	text := fmt.Sprintf("%s: %s as of %s.", obs.SeriesName, formatted, obs.Date.Format("January 2, 2006"))

	rec := intel.Record{
		RawContent:       text,
		ProcessedContent: text,
		Category:         category,
		SourceType:       intel.SourceMacro,
		Confidence:       macroConfidence,
		Macro: &intel.MacroDetails{
			SeriesID:   obs.SeriesID,
			SeriesName: obs.SeriesName,
			ObservedAt: obs.Date,
			Units:      obs.Units,
			Value:      obs.Value,
		},
		Sources: []map[string]interface{}{{"series_id": obs.SeriesID, "series_name": obs.SeriesName}},
	}

	rec.RelevanceScore = intel.Clamp01(
		macroBaseRelevance + seriesWeights[obs.SeriesID] + intel.AviationRelevance(text))

	if sectors, ok := seriesSectors[obs.SeriesID]; ok {
		rec.AffectedSectors = append([]intel.Sector(nil), sectors...)
	} else {
		rec.AffectedSectors = intel.AssignSectors(text, rec.RelevanceScore)
	}

	rec.ActionItems = intel.GenerateActionItems(text)
	rec.SoWhat = soWhat(obs, formatted)
	return rec
}

// FormatValue renders the observation in series-aware units.
func FormatValue(obs Observation) string {
	switch obs.SeriesID {
	case "FEDFUNDS", "DGS10", "UNRATE", "A191RL1Q225SBEA":
		return fmt.Sprintf("%.2f%%", obs.Value)
	case "DJFUELUSGULF", "DCOILWTICO", "GASREGW":
		return fmt.Sprintf("$%.2f per unit", obs.Value)
	case "CPIAUCSL", "PCEPI", "UMCSENT":
		return fmt.Sprintf("%.1f (index)", obs.Value)
	case "GDP":
		if obs.Value >= 1000 {
			return fmt.Sprintf("$%.2f trillion", obs.Value/1000)
		}
		return fmt.Sprintf("$%.1f billion", obs.Value)
	case "PAYEMS":
		return fmt.Sprintf("%.0f thousand jobs", obs.Value)
	default:
		units := obs.Units
		if units == "" {
			units = "units"
		}
		return fmt.Sprintf("%.2f %s", obs.Value, units)
	}
}

func soWhat(obs Observation, formatted string) string {
	switch {
	case strings.Contains(obs.SeriesID, "FUEL") || obs.SeriesID == "DCOILWTICO" || obs.SeriesID == "GASREGW":
		return fmt.Sprintf("%s at %s feeds directly into trip cost quotes and hedging positions.", obs.SeriesName, formatted)
	case obs.SeriesID == "FEDFUNDS" || obs.SeriesID == "DGS10":
		return fmt.Sprintf("%s at %s shapes aircraft financing costs and client capital budgets.", obs.SeriesName, formatted)
	case obs.SeriesID == "CPIAUCSL" || obs.SeriesID == "PCEPI":
		return fmt.Sprintf("%s at %s signals cost pressure across catering, handling, and crew expenses.", obs.SeriesName, formatted)
	case obs.SeriesID == "GDP" || obs.SeriesID == "A191RL1Q225SBEA":
		return fmt.Sprintf("%s at %s frames the demand outlook for discretionary corporate travel.", obs.SeriesName, formatted)
	default:
		return fmt.Sprintf("%s at %s is a leading signal for charter demand among client sectors.", obs.SeriesName, formatted)
	}
}
