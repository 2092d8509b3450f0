// Package pipeline runs one complete brief: collect, merge, augment,
// organize, render. Collection failures degrade the brief; only a failed
// artifact write fails the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aviation_intel/pkg/core/augment"
	"aviation_intel/pkg/core/cache"
	"aviation_intel/pkg/core/collect"
	"aviation_intel/pkg/core/config"
	"aviation_intel/pkg/core/intel"
	"aviation_intel/pkg/core/llm"
	"aviation_intel/pkg/core/merge"
	"aviation_intel/pkg/core/report"
	"aviation_intel/pkg/core/safety"
	"aviation_intel/pkg/core/sector"
	"aviation_intel/pkg/core/sources/macro"
	"aviation_intel/pkg/core/sources/narrative"
	"aviation_intel/pkg/core/sources/trade"
	"aviation_intel/pkg/core/store"
)

// Pipeline owns the wired components for brief runs.
type Pipeline struct {
	orchestrator *collect.Orchestrator
	merger       *merge.Merger
	organizer    *sector.Organizer
	ai           *augment.Client
	writer       *report.Writer
	databaseURL  string
}

// RunResult is the outcome of one run.
type RunResult struct {
	RunID      string
	Brief      *report.Brief
	Artifacts  []string
	Collection *intel.CollectionResult
}

// New wires a pipeline from configuration.
func New(cfg *config.Config) (*Pipeline, error) {
	var responseCache cache.Cache = cache.NoopCache{}
	if cfg.CacheEnabled {
		diskCache, err := cache.NewDiskCache(cfg.CacheDir, cfg.CacheTTLHours)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize response cache: %w", err)
		}
		responseCache = diskCache
	}

	templates, err := narrative.LoadTemplates(cfg.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load query templates: %w", err)
	}

	clients, err := cfg.LoadClientSectors()
	if err != nil {
		return nil, fmt.Errorf("failed to load client sector map: %w", err)
	}

	orchestrator := collect.NewOrchestrator(
		narrative.NewClient(narrative.Config{URL: cfg.NarrativeURL, Token: cfg.NarrativeToken}),
		trade.NewClient(trade.Config{URL: cfg.TradeURL, APIKey: cfg.TradeAPIKey}),
		macro.NewClient(macro.Config{URL: cfg.MacroURL, APIKey: cfg.MacroAPIKey}),
		templates,
		responseCache,
	)

	ai := augment.NewClient(llm.NewFromEnv(), safety.NewSanitizer(clients), cfg.AIEnabled)

	return &Pipeline{
		orchestrator: orchestrator,
		merger:       merge.NewMerger(),
		organizer:    sector.NewOrganizer(),
		ai:           ai,
		writer:       report.NewWriter(cfg.OutputDir),
		databaseURL:  cfg.DatabaseURL,
	}, nil
}

// NewCustom wires a pipeline from pre-built components, used by tests.
func NewCustom(orchestrator *collect.Orchestrator, ai *augment.Client, writer *report.Writer) *Pipeline {
	return &Pipeline{
		orchestrator: orchestrator,
		merger:       merge.NewMerger(),
		organizer:    sector.NewOrganizer(),
		ai:           ai,
		writer:       writer,
	}
}

// Run executes one brief run end to end.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.NewString()
	fmt.Printf("[PIPELINE] run %s starting\n", runID)

	collection := p.orchestrator.CollectAll(ctx)
	merged := p.merger.Merge(collection.Narrative, collection.Trade, collection.Macro)
	fmt.Printf("[PIPELINE] merged %d records\n", len(merged))

	merged = p.ai.AugmentSoWhats(ctx, merged)

	bundles := p.organizer.Organize(merged)
	summary := p.ai.GenerateExecSummary(ctx, merged, augment.FallbackExecSummary(merged))

	brief := &report.Brief{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Summary:     summary,
		Bundles:     bundles,
		Records:     merged,
		Status:      collection.Status,
		Errors:      collection.Errors,
		Usage:       p.ai.Usage(),
	}

	artifacts, err := p.writer.Write(brief)
	if err != nil {
		return nil, fmt.Errorf("brief render failed: %w", err)
	}

	if p.databaseURL != "" {
		p.saveRunHistory(ctx, brief, artifacts)
	}

	fmt.Printf("[PIPELINE] run %s complete, usage %s\n", runID, brief.Usage)
	return &RunResult{
		RunID:      runID,
		Brief:      brief,
		Artifacts:  artifacts,
		Collection: collection,
	}, nil
}

// saveRunHistory persists run metadata on a best-effort basis. History is an
// audit convenience; its failure never fails the run.
func (p *Pipeline) saveRunHistory(ctx context.Context, brief *report.Brief, artifacts []string) {
	if err := store.InitDB(ctx, p.databaseURL); err != nil {
		fmt.Printf("[PIPELINE] run history unavailable: %v\n", err)
		return
	}

	meta := report.Metadata{
		RunID:       brief.RunID,
		GeneratedAt: brief.GeneratedAt,
		RecordCount: len(brief.Records),
		Errors:      brief.Errors,
		Usage:       brief.Usage,
		Artifacts:   artifacts,
	}
	meta.Status = make(map[string]string, len(brief.Status))
	for k, v := range brief.Status {
		meta.Status[string(k)] = string(v)
	}

	if err := store.NewRunRepo().Save(ctx, meta); err != nil {
		fmt.Printf("[PIPELINE] failed to save run history: %v\n", err)
	}
}
