package macro

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aviation_intel/pkg/core/intel"
	"aviation_intel/pkg/core/retry"
)

func makeObservation(seriesID, seriesName string, value float64) Observation {
	return Observation{
		SeriesID:   seriesID,
		SeriesName: seriesName,
		Date:       time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
		Value:      value,
		Units:      "Dollars per Gallon",
	}
}

// =============================================================================
// NORMALIZER
// =============================================================================

func TestMacroNormalizeJetFuel(t *testing.T) {
	rec := NewNormalizer().Normalize(makeObservation("DJFUELUSGULF", "Jet Fuel Spot Price (US Gulf Coast)", 2.31), "fuel_costs")

	if rec.SourceType != intel.SourceMacro {
		t.Errorf("wrong source type %s", rec.SourceType)
	}
	if rec.Confidence != 0.95 {
		t.Errorf("macro confidence fixed at 0.95, got %f", rec.Confidence)
	}
	if rec.Macro == nil || rec.Macro.SeriesID != "DJFUELUSGULF" {
		t.Fatal("macro details missing")
	}
	// Jet fuel carries the heaviest series weight.
	if rec.RelevanceScore < 0.7 {
		t.Errorf("jet fuel relevance too low: %f", rec.RelevanceScore)
	}
	// Sector mapping is restricted: jet fuel maps to general+energy only.
	want := map[intel.Sector]bool{intel.SectorGeneral: true, intel.SectorEnergy: true}
	if len(rec.AffectedSectors) != 2 {
		t.Fatalf("expected 2 sectors, got %v", rec.AffectedSectors)
	}
	for _, s := range rec.AffectedSectors {
		if !want[s] {
			t.Errorf("unexpected sector %s", s)
		}
	}
}

func TestMacroSourceTypeInvariant(t *testing.T) {
	// source_type = macro iff series id non-empty: every normalized record
	// carries its series id.
	rec := NewNormalizer().Normalize(makeObservation("UNRATE", "Unemployment Rate", 4.1), "employment")
	if rec.SourceType == intel.SourceMacro && rec.Macro.SeriesID == "" {
		t.Error("macro record without series id")
	}
}

func TestFormatValueBySeries(t *testing.T) {
	cases := []struct {
		id    string
		value float64
		want  string
	}{
		{"FEDFUNDS", 5.33, "5.33%"},
		{"UNRATE", 4.1, "4.10%"},
		{"DJFUELUSGULF", 2.31, "$2.31 per unit"},
		{"CPIAUCSL", 321.5, "321.5 (index)"},
		{"GDP", 28500, "$28.50 trillion"},
		{"GDP", 950, "$950.0 billion"},
		{"PAYEMS", 158000, "158000 thousand jobs"},
	}
	for _, tc := range cases {
		obs := makeObservation(tc.id, "x", tc.value)
		if got := FormatValue(obs); got != tc.want {
			t.Errorf("%s: FormatValue = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestMacroRelevanceClamped(t *testing.T) {
	for id := range seriesWeights {
		rec := NewNormalizer().Normalize(makeObservation(id, "Jet Fuel aviation aircraft airline", 1), "x")
		if rec.RelevanceScore < 0 || rec.RelevanceScore > 1 {
			t.Errorf("%s relevance out of bounds: %f", id, rec.RelevanceScore)
		}
	}
}

// =============================================================================
// CLIENT
// =============================================================================

func observationsBody(t *testing.T, units string, rows [][2]string) []byte {
	t.Helper()
	type obs struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	}
	payload := struct {
		Units        string `json:"units"`
		Observations []obs  `json:"observations"`
	}{Units: units}
	for _, r := range rows {
		payload.Observations = append(payload.Observations, obs{Date: r[0], Value: r[1]})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestFetchSeriesSelectsLastUsableObservation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("series_id") != "DJFUELUSGULF" || q.Get("file_type") != "json" || q.Get("sort_order") != "asc" {
			t.Errorf("unexpected query params: %v", q)
		}
		if q.Get("api_key") != "k" {
			t.Errorf("api key not forwarded")
		}
		w.Write(observationsBody(t, "Dollars per Gallon", [][2]string{
			{"2026-02-10", "2.25"},
			{"2026-02-11", "2.31"},
			{"2026-02-12", "."}, // missing sentinel must be filtered
		}))
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL, APIKey: "k"})
	obs, err := client.fetchSeries(context.Background(), Series{"DJFUELUSGULF", "Jet Fuel"}, 30)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if obs.Value != 2.31 {
		t.Errorf("expected latest usable value 2.31, got %f", obs.Value)
	}
	if obs.Date.Format("2006-01-02") != "2026-02-11" {
		t.Errorf("wrong observation date %v", obs.Date)
	}
}

func TestFetchSeriesAllMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(observationsBody(t, "", [][2]string{{"2026-02-10", "."}}))
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL, APIKey: "k"})
	_, err := client.fetchSeries(context.Background(), Series{"GDP", "GDP"}, 30)
	if err == nil {
		t.Fatal("expected error for all-missing series")
	}
	if retry.KindOf(err) != retry.KindParse {
		t.Errorf("expected parse kind, got %s", retry.KindOf(err))
	}
}

func TestFetchCategorySkipsUnusableSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_id") == "CPIAUCSL" {
			w.Write(observationsBody(t, "Index", [][2]string{{"2026-02-01", "321.5"}}))
			return
		}
		w.Write(observationsBody(t, "Index", [][2]string{{"2026-02-01", "."}}))
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL, APIKey: "k"})
	out, err := client.FetchCategory(context.Background(), Categories[0]) // inflation: CPIAUCSL + PCEPI
	if err != nil {
		t.Fatalf("category fetch failed: %v", err)
	}
	if len(out) != 1 || out[0].SeriesID != "CPIAUCSL" {
		t.Errorf("expected only CPIAUCSL, got %+v", out)
	}
}

func TestFetchCategoryUnconfigured(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.FetchCategory(context.Background(), Categories[0])
	if !retry.IsUnconfigured(err) {
		t.Errorf("expected unconfigured, got %v", err)
	}
}
