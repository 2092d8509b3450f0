package intel

import "strings"

// sectorSignals holds the keyword/trigger tables for sector assignment.
// A keyword match scores +1, a trigger match +2; a sector is assigned when
// its total reaches the inclusion threshold of 2.
type sectorSignals struct {
	keywords []string
	triggers []string
}

var sectorTable = map[Sector]sectorSignals{
	SectorTechnology: {
		keywords: []string{"software", "semiconductor", "chip", "cloud", "digital", "startup"},
		triggers: []string{"technology", "tech sector", "artificial intelligence"},
	},
	SectorFinance: {
		keywords: []string{"bank", "lending", "credit", "bond", "equity", "capital"},
		triggers: []string{"finance", "financial services", "federal reserve"},
	},
	SectorRealEstate: {
		keywords: []string{"property", "housing", "construction", "commercial real", "mortgage"},
		triggers: []string{"real estate", "reit"},
	},
	SectorEntertainment: {
		keywords: []string{"studio", "streaming", "music", "film", "sports", "media"},
		triggers: []string{"entertainment", "hollywood"},
	},
	SectorEnergy: {
		keywords: []string{"oil", "gas", "fuel", "renewable", "electricity", "crude"},
		triggers: []string{"energy", "opec", "petroleum"},
	},
	SectorHealthcare: {
		keywords: []string{"hospital", "pharma", "drug", "medical", "biotech", "clinical"},
		triggers: []string{"healthcare", "health care", "fda approval"},
	},
}

const sectorInclusionThreshold = 2

// AssignSectors maps text to affected client sectors using the keyword and
// trigger tables. A record always gets at least one sector: when nothing
// specific matches, records at or above 0.5 relevance are tagged general;
// lower-relevance records are tagged general as well so downstream selection
// never sees an empty set.
func AssignSectors(text string, relevance float64) []Sector {
	lower := strings.ToLower(text)

	var matched []Sector
	for _, sector := range AllSectors {
		signals, ok := sectorTable[sector]
		if !ok {
			continue
		}
		score := 0
		for _, kw := range signals.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		for _, trig := range signals.triggers {
			if strings.Contains(lower, trig) {
				score += 2
			}
		}
		if score >= sectorInclusionThreshold {
			matched = append(matched, sector)
		}
	}

	if len(matched) == 0 {
		matched = []Sector{SectorGeneral}
	}
	return matched
}
