package merge

import (
	"testing"
	"time"

	"aviation_intel/pkg/core/intel"
)

// =============================================================================
// HELPERS
// =============================================================================

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestMerger() *Merger {
	m := NewMerger()
	m.SetClock(func() time.Time { return fixedNow })
	return m
}

func narrativeRecord(content string, relevance, confidence float64) intel.Record {
	return intel.Record{
		ProcessedContent: content,
		RawContent:       content,
		RelevanceScore:   relevance,
		Confidence:       confidence,
		SourceType:       intel.SourceNarrative,
		AffectedSectors:  []intel.Sector{intel.SectorGeneral},
	}
}

func macroRecord(content string, relevance, confidence float64, observedDaysAgo int) intel.Record {
	return intel.Record{
		ProcessedContent: content,
		RawContent:       content,
		RelevanceScore:   relevance,
		Confidence:       confidence,
		SourceType:       intel.SourceMacro,
		AffectedSectors:  []intel.Sector{intel.SectorGeneral},
		Macro: &intel.MacroDetails{
			SeriesID:   "FEDFUNDS",
			ObservedAt: fixedNow.AddDate(0, 0, -observedDaysAgo),
		},
	}
}

func tradeRecord(content string, relevance, confidence float64, implementedDaysAgo int) intel.Record {
	return intel.Record{
		ProcessedContent: content,
		RawContent:       content,
		RelevanceScore:   relevance,
		Confidence:       confidence,
		SourceType:       intel.SourceTrade,
		AffectedSectors:  []intel.Sector{intel.SectorGeneral},
		Trade: &intel.TradeDetails{
			InterventionID:  "1",
			DateImplemented: fixedNow.AddDate(0, 0, -implementedDaysAgo),
			HasImplemented:  true,
		},
	}
}

func contents(records []intel.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ProcessedContent
	}
	return out
}

// =============================================================================
// SEED SCENARIO: MULTI-SOURCE MERGE WITH TOPIC PRIORITY
// =============================================================================

func TestMergePromotesMacroForEconomicTopic(t *testing.T) {
	r1 := narrativeRecord("The Federal Reserve raised rates by 25 basis points.", 0.7, 0.8)
	r2 := macroRecord(
		"The Federal Reserve raised rates by 25 basis points. Effective federal funds rate now 4.58 percent, latest monthly observation.",
		0.8, 0.95, 5)

	out := newTestMerger().Merge([]intel.Record{r1}, []intel.Record{r2})
	if len(out) != 2 {
		t.Fatalf("expected both records (additive pass), got %d", len(out))
	}
	if out[0].SourceType != intel.SourceMacro {
		t.Errorf("economic topic must promote the macro record first, got %s", out[0].SourceType)
	}
	if out[1].SourceType != intel.SourceNarrative {
		t.Errorf("narrative record must appear in the append tail, got %s", out[1].SourceType)
	}

	// The narrative record appears exactly once.
	count := 0
	for _, r := range out {
		if r.SourceType == intel.SourceNarrative {
			count++
		}
	}
	if count != 1 {
		t.Errorf("narrative record emitted %d times", count)
	}
}

// =============================================================================
// SEED SCENARIO: TRADE FRESHNESS CUTOFF
// =============================================================================

func TestMergeDropsStaleTradeRecords(t *testing.T) {
	old := tradeRecord("Sanction package on suppliers announced earlier this year.", 0.8, 0.9, 200)
	fresh := tradeRecord("Sanction package on aerospace suppliers expanded with new listings.", 0.8, 0.9, 30)

	out := newTestMerger().Merge([]intel.Record{old, fresh})
	if len(out) != 1 {
		t.Fatalf("expected only the fresh record, got %d", len(out))
	}
	if out[0].Trade.DateImplemented != fresh.Trade.DateImplemented {
		t.Error("wrong record survived the cutoff")
	}
}

func TestMergeKeepsTradeWithoutImplementationDate(t *testing.T) {
	r := tradeRecord("Announced capital measure pending implementation details.", 0.6, 0.8, 0)
	r.Trade.HasImplemented = false
	out := newTestMerger().Merge([]intel.Record{r})
	if len(out) != 1 {
		t.Error("records without implementation date pass the freshness filter")
	}
}

// =============================================================================
// SCORING AND ORDERING
// =============================================================================

func TestCompositeScoreSourceWeights(t *testing.T) {
	m := newTestMerger()
	n := narrativeRecord("x", 0.8, 0.9)
	tr := tradeRecord("x", 0.8, 0.9, 30)
	mc := macroRecord("x", 0.8, 0.9, 5)

	if m.CompositeScore(n) <= m.CompositeScore(tr) {
		t.Error("narrative weight must exceed trade weight")
	}
	if m.CompositeScore(tr) <= m.CompositeScore(mc) {
		t.Error("trade weight must exceed macro weight")
	}
}

func TestFreshnessFactorTiers(t *testing.T) {
	m := newTestMerger()
	if f := m.freshnessFactor(tradeRecord("x", 1, 1, 30)); f != 1.0 {
		t.Errorf("trade <90d factor = %f", f)
	}
	if f := m.freshnessFactor(tradeRecord("x", 1, 1, 120)); f != 0.9 {
		t.Errorf("trade >=90d factor = %f", f)
	}
	if f := m.freshnessFactor(macroRecord("x", 1, 1, 30)); f != 1.0 {
		t.Errorf("macro <60d factor = %f", f)
	}
	if f := m.freshnessFactor(macroRecord("x", 1, 1, 90)); f != 0.95 {
		t.Errorf("macro >=60d factor = %f", f)
	}
	if f := m.freshnessFactor(narrativeRecord("x", 1, 1)); f != 1.0 {
		t.Errorf("narrative factor = %f", f)
	}
}

func TestMergeStableAndDeterministic(t *testing.T) {
	inputs := [][]intel.Record{
		{
			narrativeRecord("Charter demand across european markets continues climbing steadily this season.", 0.9, 0.9),
			narrativeRecord("Airport slot constraints tighten at coastal hubs before summer scheduling.", 0.6, 0.7),
		},
		{
			tradeRecord("Export controls cover additional navigation equipment categories this month.", 0.7, 0.9, 20),
		},
		{
			macroRecord("Jet fuel spot price holding near recent highs across gulf terminals.", 0.8, 0.95, 10),
		},
	}

	m := newTestMerger()
	first := contents(m.Merge(inputs[0], inputs[1], inputs[2]))
	second := contents(m.Merge(inputs[0], inputs[1], inputs[2]))
	if len(first) != len(second) {
		t.Fatal("non-deterministic output size")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic order at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	records := []intel.Record{
		narrativeRecord("Overflight permissions for northern corridors face new processing delays.", 0.9, 0.8),
		tradeRecord("Tariff schedule adds avionics subassemblies at revised duty rates.", 0.7, 0.9, 40),
		macroRecord("Federal funds rate unchanged after latest policy meeting, guidance steady.", 0.8, 0.95, 15),
	}

	m := newTestMerger()
	once := m.Merge(records)
	twice := m.Merge(once)
	a, b := contents(once), contents(twice)
	if len(a) != len(b) {
		t.Fatalf("idempotence broken: sizes %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("idempotence broken at %d: %q vs %q", i, a[i], b[i])
		}
	}
}

// =============================================================================
// DE-DUPLICATION
// =============================================================================

func TestMergeDeduplicatesNearIdenticalContent(t *testing.T) {
	a := narrativeRecord("Jet fuel prices climbed across european airports amid refinery outages disrupting supply.", 0.9, 0.9)
	b := narrativeRecord("Jet fuel prices climbed across european airports amid refinery outages disrupting supply chains.", 0.5, 0.6)

	out := newTestMerger().Merge([]intel.Record{a, b})
	if len(out) != 1 {
		t.Fatalf("expected de-duplication to 1 record, got %d", len(out))
	}
	// The higher-scored record survives.
	if out[0].RelevanceScore != 0.9 {
		t.Error("lower-scored duplicate should have been dropped")
	}
}

func TestMergeOutputNeverLarger(t *testing.T) {
	in := []intel.Record{
		narrativeRecord("alpha content about charter demand rising", 0.5, 0.5),
		narrativeRecord("beta content about maintenance scheduling", 0.4, 0.5),
	}
	out := newTestMerger().Merge(in)
	if len(out) > len(in) {
		t.Errorf("output %d larger than input %d", len(out), len(in))
	}
}

func TestMergeEmptyInput(t *testing.T) {
	if out := newTestMerger().Merge(nil, []intel.Record{}); len(out) != 0 {
		t.Errorf("empty input must produce empty output, got %d", len(out))
	}
}
