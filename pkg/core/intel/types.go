// Package intel defines the uniform Intelligence Record carried through the
// collection, merge and augmentation pipeline, plus the closed enumerations
// (source types, client sectors) the rest of the core dispatches on.
package intel

import "time"

// SourceType identifies the external service a record came from.
type SourceType string

const (
	SourceNarrative SourceType = "narrative"
	SourceTrade     SourceType = "trade"
	SourceMacro     SourceType = "macro"
)

// AllSourceTypes lists the sources in stable reporting order.
var AllSourceTypes = []SourceType{SourceNarrative, SourceTrade, SourceMacro}

// Sector is the closed enumeration of client sectors.
type Sector string

const (
	SectorTechnology    Sector = "technology"
	SectorFinance       Sector = "finance"
	SectorRealEstate    Sector = "real_estate"
	SectorEntertainment Sector = "entertainment"
	SectorEnergy        Sector = "energy"
	SectorHealthcare    Sector = "healthcare"
	SectorGeneral       Sector = "general"
)

// AllSectors lists every sector in stable order. Organizer iteration and
// config tables index off this slice rather than a map so output ordering is
// deterministic.
var AllSectors = []Sector{
	SectorTechnology,
	SectorFinance,
	SectorRealEstate,
	SectorEntertainment,
	SectorEnergy,
	SectorHealthcare,
	SectorGeneral,
}

// TradeDetails carries the trade-intervention specific payload.
type TradeDetails struct {
	InterventionID   string
	Implementing     []string // implementing jurisdictions
	Affected         []string // affected jurisdictions
	DateAnnounced    time.Time
	DateImplemented  time.Time
	HasImplemented   bool // DateImplemented is meaningful only when set
	InterventionType string
	Evaluation       string // "Red"/"Harmful"/"Amber"/"Green"/"Liberalising"
}

// MacroDetails carries the macroeconomic time-series specific payload.
type MacroDetails struct {
	SeriesID   string
	SeriesName string
	ObservedAt time.Time
	Units      string
	Value      float64
}

// Record is the uniform intelligence carrier. The header fields are common to
// all sources; Trade and Macro are variant payloads populated only for their
// source type (SourceType == SourceMacro iff Macro.SeriesID is non-empty).
//
// Records are immutable after normalization except for the single
// substitution of SoWhat by AI augmentation, which returns a copy.
type Record struct {
	RawContent       string
	ProcessedContent string
	Category         string
	RelevanceScore   float64 // clamped to [0,1]
	Confidence       float64 // clamped to [0,1]
	SoWhat           string
	AffectedSectors  []Sector // always at least one element
	ActionItems      []string // at most 3
	SourceType       SourceType
	Sources          []map[string]interface{} // provenance descriptors

	Trade *TradeDetails
	Macro *MacroDetails
}

// WithSoWhat returns a copy of r with the so-what statement replaced. This is
// the only mutation the pipeline performs after normalization.
func (r Record) WithSoWhat(s string) Record {
	r.SoWhat = s
	return r
}

// Clamp01 bounds a derived score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SourceStatus reports the per-source outcome of a collection run.
type SourceStatus string

const (
	StatusSuccess      SourceStatus = "success"
	StatusFailed       SourceStatus = "failed"
	StatusUnconfigured SourceStatus = "unconfigured"
)

// CollectionResult is the envelope returned by the orchestrator. The arms are
// already-normalized records; a failed source leaves its arm empty.
type CollectionResult struct {
	Narrative []Record
	Trade     []Record
	Macro     []Record
	Status    map[SourceType]SourceStatus
	Errors    []string
}

// Succeeded reports whether at least one source completed.
func (c *CollectionResult) Succeeded() bool {
	for _, s := range c.Status {
		if s == StatusSuccess {
			return true
		}
	}
	return false
}

// SectorBundle is the per-sector view produced after merging.
type SectorBundle struct {
	Sector        Sector
	Records       []Record // sorted by relevance descending
	Summary       string   // space-joined so-what of the top 3
	Risks         []string // at most 3
	Opportunities []string // at most 3
}

// Finding is one structured key-finding block of the executive summary.
type Finding struct {
	Subheader string
	Content   string
	Bullets   []string // at most 3
}

// WatchFactor is one structured watch-factor block of the executive summary.
type WatchFactor struct {
	Indicator    string
	WhatToWatch  string
	WhyItMatters string
}

// ExecSummary is the three-section executive summary structure fed to the
// render sink, either model-generated (post validation) or fallback-built.
type ExecSummary struct {
	BottomLine   []string
	KeyFindings  []Finding
	WatchFactors []WatchFactor
}
