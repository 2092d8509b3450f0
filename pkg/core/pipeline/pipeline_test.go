package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aviation_intel/pkg/core/augment"
	"aviation_intel/pkg/core/cache"
	"aviation_intel/pkg/core/collect"
	"aviation_intel/pkg/core/intel"
	"aviation_intel/pkg/core/report"
	"aviation_intel/pkg/core/safety"
	"aviation_intel/pkg/core/sources/macro"
	"aviation_intel/pkg/core/sources/narrative"
	"aviation_intel/pkg/core/sources/trade"
)

type offlineNarrative struct{}

func (offlineNarrative) Configured() bool { return false }
func (offlineNarrative) Query(context.Context, narrative.QueryParams) (*narrative.Response, error) {
	return nil, nil
}

type fixedTrade struct{}

func (fixedTrade) Configured() bool { return true }
func (fixedTrade) FetchFamily(ctx context.Context, family trade.QueryFamily) ([]trade.Intervention, error) {
	if family.Name != "recent_harmful" {
		return nil, nil
	}
	return []trade.Intervention{{
		InterventionID:   "2001",
		Title:            "Sanction on aviation fuel exports",
		Description:      "New sanction covering aviation fuel and aircraft lubricant exports.",
		InterventionType: "Sanction",
		Evaluation:       "Red",
		Implementing:     []string{"United States"},
		DateAnnounced:    "2026-08-10",
	}}, nil
}

type fixedMacro struct{}

func (fixedMacro) Configured() bool { return true }
func (fixedMacro) FetchCategory(ctx context.Context, cat macro.Category) ([]macro.Observation, error) {
	if cat.Name != "fuel_costs" {
		return nil, nil
	}
	return []macro.Observation{{
		SeriesID:   "DJFUELUSGULF",
		SeriesName: "Jet Fuel Spot Price (US Gulf Coast)",
		Value:      2.85,
		Units:      "Dollars per Gallon",
	}}, nil
}

func newOfflinePipeline(outputDir string) *Pipeline {
	orchestrator := collect.NewOrchestrator(
		offlineNarrative{}, fixedTrade{}, fixedMacro{},
		nil, cache.NoopCache{},
	)
	orchestrator.SetFollowUpSpacing(0)
	ai := augment.NewClient(nil, safety.NewSanitizer(nil), false)
	return NewCustom(orchestrator, ai, report.NewWriter(outputDir))
}

func TestRunEndToEndOffline(t *testing.T) {
	dir := t.TempDir()
	result, err := newOfflinePipeline(dir).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RunID == "" {
		t.Error("run id missing")
	}
	if !result.Collection.Succeeded() {
		t.Error("two configured sources succeeded, run must report success")
	}
	if result.Collection.Status[intel.SourceNarrative] != intel.StatusUnconfigured {
		t.Errorf("narrative status = %s", result.Collection.Status[intel.SourceNarrative])
	}
	if len(result.Brief.Records) == 0 {
		t.Fatal("merged records missing from brief")
	}
	if len(result.Brief.Summary.BottomLine) == 0 || len(result.Brief.Summary.WatchFactors) < 3 {
		t.Errorf("fallback summary incomplete: %+v", result.Brief.Summary)
	}

	for _, p := range result.Artifacts {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("artifact %s not written: %v", p, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "session_metadata.json"))
	if err != nil {
		t.Fatalf("session metadata missing: %v", err)
	}
	if !strings.Contains(string(raw), result.RunID) {
		t.Error("metadata does not reference the run id")
	}
}

type cannedProvider struct{ response string }

func (p cannedProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	return p.response, nil
}
func (cannedProvider) Configured() bool { return true }
func (cannedProvider) Name() string     { return "canned" }

func TestRunRegeneratesSoWhatWhenAIEnabled(t *testing.T) {
	generated := "Operators should expect tighter fuel sourcing and plan tankering accordingly."
	orchestrator := collect.NewOrchestrator(
		offlineNarrative{}, fixedTrade{}, fixedMacro{},
		nil, cache.NoopCache{},
	)
	ai := augment.NewClient(cannedProvider{response: generated}, safety.NewSanitizer(nil), true)
	result, err := NewCustom(orchestrator, ai, report.NewWriter(t.TempDir())).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Normalizers emit template so-whats, so the generated statement appears
	// only if ranked records are reflowed through generation.
	found := false
	for _, r := range result.Brief.Records {
		if r.SoWhat == generated {
			found = true
		}
	}
	if !found {
		t.Error("no record carries the generated so-what statement")
	}
}

func TestRunSoWhatNeverEmpty(t *testing.T) {
	result, err := newOfflinePipeline(t.TempDir()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range result.Brief.Records {
		if r.SoWhat == "" {
			t.Errorf("record without so-what after augmentation: %q", r.ProcessedContent)
		}
	}
}

func TestRunFailsOnUnwritableOutput(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := newOfflinePipeline(blocker).Run(context.Background()); err == nil {
		t.Error("artifact write failure must fail the run")
	}
}
