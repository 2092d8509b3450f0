package sector

import (
	"strings"
	"testing"

	"aviation_intel/pkg/core/intel"
)

func record(raw, soWhat string, relevance float64, sectors ...intel.Sector) intel.Record {
	return intel.Record{
		RawContent:       raw,
		ProcessedContent: raw,
		SoWhat:           soWhat,
		RelevanceScore:   relevance,
		Confidence:       0.8,
		SourceType:       intel.SourceNarrative,
		AffectedSectors:  sectors,
	}
}

func findBundle(t *testing.T, bundles []intel.SectorBundle, s intel.Sector) intel.SectorBundle {
	t.Helper()
	for _, b := range bundles {
		if b.Sector == s {
			return b
		}
	}
	t.Fatalf("no bundle for sector %s", s)
	return intel.SectorBundle{}
}

func TestOrganizeSelectsSectorAndGeneral(t *testing.T) {
	records := []intel.Record{
		record("energy fuel news", "Watch fuel costs.", 0.9, intel.SectorEnergy),
		record("broad market note", "Watch the broad market.", 0.5, intel.SectorGeneral),
		record("hospital merger", "Watch healthcare consolidation.", 0.8, intel.SectorHealthcare),
	}

	bundles := NewOrganizer().Organize(records)
	energy := findBundle(t, bundles, intel.SectorEnergy)

	// Energy bundle carries the energy record plus the general record.
	if len(energy.Records) != 2 {
		t.Fatalf("expected 2 records in energy bundle, got %d", len(energy.Records))
	}
	if energy.Records[0].RelevanceScore != 0.9 {
		t.Error("records must be sorted by relevance descending")
	}
}

func TestOrganizeBundleCountAndOrder(t *testing.T) {
	bundles := NewOrganizer().Organize(nil)
	if len(bundles) != len(intel.AllSectors) {
		t.Fatalf("expected one bundle per sector, got %d", len(bundles))
	}
	for i, b := range bundles {
		if b.Sector != intel.AllSectors[i] {
			t.Errorf("bundle %d out of enumeration order: %s", i, b.Sector)
		}
	}
}

func TestSummaryJoinsTopThree(t *testing.T) {
	records := []intel.Record{
		record("a", "First implication.", 0.9, intel.SectorGeneral),
		record("b", "Second implication.", 0.8, intel.SectorGeneral),
		record("c", "Third implication.", 0.7, intel.SectorGeneral),
		record("d", "Fourth implication.", 0.6, intel.SectorGeneral),
	}

	general := findBundle(t, NewOrganizer().Organize(records), intel.SectorGeneral)
	if strings.Contains(general.Summary, "Fourth") {
		t.Error("summary must only join the top 3 so-what statements")
	}
	if !strings.HasPrefix(general.Summary, "First implication.") {
		t.Errorf("summary must start with the highest-relevance so-what: %q", general.Summary)
	}
}

func TestRisksAndOpportunitiesExtraction(t *testing.T) {
	records := []intel.Record{
		record("supply disruption reported at refineries", "Mitigate supply exposure.", 0.9, intel.SectorGeneral),
		record("charter demand growth accelerating", "Capture demand upside.", 0.8, intel.SectorGeneral),
		record("neutral observation about schedules", "No action needed.", 0.7, intel.SectorGeneral),
	}

	general := findBundle(t, NewOrganizer().Organize(records), intel.SectorGeneral)
	if len(general.Risks) != 1 || general.Risks[0] != "Mitigate supply exposure." {
		t.Errorf("unexpected risks %v", general.Risks)
	}
	if len(general.Opportunities) != 1 || general.Opportunities[0] != "Capture demand upside." {
		t.Errorf("unexpected opportunities %v", general.Opportunities)
	}
}

func TestRisksDeduplicatedAndCapped(t *testing.T) {
	var records []intel.Record
	for i := 0; i < 5; i++ {
		records = append(records, record("major risk of disruption", "Same risk statement.", 0.9, intel.SectorGeneral))
	}
	records = append(records,
		record("another risk emerging", "Second risk statement.", 0.8, intel.SectorGeneral),
		record("third distinct risk area", "Third risk statement.", 0.7, intel.SectorGeneral),
		record("fourth risk too many", "Fourth risk statement.", 0.6, intel.SectorGeneral),
	)

	general := findBundle(t, NewOrganizer().Organize(records), intel.SectorGeneral)
	if len(general.Risks) != 3 {
		t.Fatalf("risks must cap at 3, got %d", len(general.Risks))
	}
	seen := map[string]bool{}
	for _, r := range general.Risks {
		if seen[r] {
			t.Errorf("duplicate risk %q", r)
		}
		seen[r] = true
	}
}
