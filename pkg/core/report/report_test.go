package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aviation_intel/pkg/core/intel"
)

func sampleBrief() *Brief {
	return &Brief{
		RunID:       "run-123",
		GeneratedAt: time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC),
		Summary: intel.ExecSummary{
			BottomLine: []string{"Reroute eastern corridors now."},
			KeyFindings: []intel.Finding{{
				Subheader: "Airspace restrictions expanding",
				Content:   "Overflight closures continue.",
				Bullets:   []string{"File alternates early"},
			}},
			WatchFactors: []intel.WatchFactor{{
				Indicator:    "Jet fuel spot price",
				WhatToWatch:  "Moves above the recent range.",
				WhyItMatters: "Largest variable cost line.",
			}},
		},
		Bundles: []intel.SectorBundle{{
			Sector:  intel.SectorEnergy,
			Records: []intel.Record{{ProcessedContent: "Fuel news"}},
			Summary: "Fuel costs pressure margins.",
			Risks:   []string{"Sustained fuel cost escalation."},
		}},
		Records: []intel.Record{{
			SourceType:       intel.SourceMacro,
			Category:         "fuel_costs",
			ProcessedContent: "Jet fuel at 2.85 dollars per gallon.",
			SoWhat:           "Factor into quotes.",
		}},
		Status: map[intel.SourceType]intel.SourceStatus{
			intel.SourceNarrative: intel.StatusFailed,
			intel.SourceTrade:     intel.StatusSuccess,
			intel.SourceMacro:     intel.StatusSuccess,
		},
		Errors: []string{"narrative/geopolitical-risk: stream rejected"},
	}
}

func TestRenderMarkdownSections(t *testing.T) {
	md := RenderMarkdown(sampleBrief())

	for _, want := range []string{
		"# Aviation Intelligence Brief — August 24, 2026",
		"### Bottom Line",
		"Reroute eastern corridors now.",
		"#### Airspace restrictions expanding",
		"### Watch Factors",
		"Jet fuel spot price",
		"### Energy",
		"**Risks**",
		"## Intelligence Detail",
		"So what: Factor into quotes.",
		"| narrative | failed |",
		"| macro | success |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdownSkipsEmptyBundles(t *testing.T) {
	b := sampleBrief()
	b.Bundles = append(b.Bundles, intel.SectorBundle{Sector: intel.SectorFinance})
	md := RenderMarkdown(b)
	if strings.Contains(md, "### Finance") {
		t.Error("sectors without records must be skipped")
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewWriter(dir).Write(sampleBrief())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 artifacts, got %v", paths)
	}

	html, err := os.ReadFile(filepath.Join(dir, "brief_2026-08-24.html"))
	if err != nil {
		t.Fatalf("HTML artifact missing: %v", err)
	}
	if !strings.Contains(string(html), "<h1>") {
		t.Error("HTML conversion did not produce headings")
	}

	raw, err := os.ReadFile(filepath.Join(dir, "session_metadata.json"))
	if err != nil {
		t.Fatalf("metadata artifact missing: %v", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("metadata not valid JSON: %v", err)
	}
	if meta.RunID != "run-123" || meta.RecordCount != 1 {
		t.Errorf("metadata content wrong: %+v", meta)
	}
	if meta.Status["narrative"] != "failed" {
		t.Errorf("metadata status wrong: %v", meta.Status)
	}
}

func TestWriteFailsOnUnwritableDir(t *testing.T) {
	// A regular file where the output directory should be forces the failure.
	blocker := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWriter(blocker).Write(sampleBrief()); err == nil {
		t.Error("disk write failure must surface an error")
	}
}
