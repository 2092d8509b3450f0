package e2e_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aviation_intel/pkg/core/config"
	"aviation_intel/pkg/core/intel"
	"aviation_intel/pkg/core/pipeline"
)

// startTradeServer serves a fixed intervention catalog for every POSTed
// filter.
func startTradeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "APIKey ") {
			http.Error(w, "missing credentials", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{{
			"intervention_id":            "9001",
			"state_act_title":            "Sanction on aviation fuel exports",
			"description":                "New sanction covering aviation fuel, aircraft parts and lubricant exports to the listed jurisdictions.",
			"intervention_type":          "Sanction",
			"gta_evaluation":             "Red",
			"implementing_jurisdictions": []string{"United States"},
			"affected_jurisdictions":     []string{"Russia"},
			"date_announced":             "2026-08-10",
		}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// startMacroServer serves one usable observation for every requested series.
func startMacroServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			http.Error(w, "missing api key", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"units": "lin",
			"observations": []map[string]string{
				{"date": "2026-08-20", "value": "2.85"},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestBriefRunAgainstStubServices runs the full pipeline against local stub
// services: trade and macro live, narrative unconfigured, AI disabled.
func TestBriefRunAgainstStubServices(t *testing.T) {
	tradeSrv := startTradeServer(t)
	macroSrv := startMacroServer(t)
	outputDir := t.TempDir()

	cfg := &config.Config{
		TradeURL:    tradeSrv.URL,
		TradeAPIKey: "test-key",
		MacroURL:    macroSrv.URL,
		MacroAPIKey: "test-key",
		OutputDir:   outputDir,
		// Cache disabled keeps the stub servers authoritative.
		CacheEnabled: false,
		AIEnabled:    false,
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		t.Fatalf("pipeline init failed: %v", err)
	}

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !result.Collection.Succeeded() {
		t.Fatalf("expected success with two live sources: %+v", result.Collection.Status)
	}
	if result.Collection.Status[intel.SourceNarrative] != intel.StatusUnconfigured {
		t.Errorf("narrative status = %s", result.Collection.Status[intel.SourceNarrative])
	}
	if len(result.Brief.Records) == 0 {
		t.Fatal("no records survived the pipeline")
	}

	var sawTrade, sawMacro bool
	for _, r := range result.Brief.Records {
		switch r.SourceType {
		case intel.SourceTrade:
			sawTrade = true
		case intel.SourceMacro:
			sawMacro = true
		}
	}
	if !sawTrade || !sawMacro {
		t.Errorf("expected records from both live sources, trade=%v macro=%v", sawTrade, sawMacro)
	}

	raw, err := os.ReadFile(filepath.Join(outputDir, "session_metadata.json"))
	if err != nil {
		t.Fatalf("session metadata not written: %v", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("metadata not valid JSON: %v", err)
	}
	if meta["run_id"] != result.RunID {
		t.Error("metadata run id mismatch")
	}

	mdFiles, _ := filepath.Glob(filepath.Join(outputDir, "brief_*.md"))
	if len(mdFiles) != 1 {
		t.Fatalf("expected one markdown brief, got %v", mdFiles)
	}
	md, _ := os.ReadFile(mdFiles[0])
	for _, want := range []string{"Executive Summary", "Watch Factors", "Source Status"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("brief missing section %q", want)
		}
	}
}
