// Package collect runs the concurrent three-source collection: narrative
// streaming queries, trade catalog fan-out, and macro series fan-out, each
// gated by the response cache. Partial failure is tolerated; a source that
// fails or is unconfigured never cancels its peers.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"aviation_intel/pkg/core/cache"
	"aviation_intel/pkg/core/intel"
	"aviation_intel/pkg/core/retry"
	"aviation_intel/pkg/core/sources/macro"
	"aviation_intel/pkg/core/sources/narrative"
	"aviation_intel/pkg/core/sources/trade"
)

const (
	// narrativeSessionWidth bounds concurrent streaming sessions.
	narrativeSessionWidth = 3
	// followUpConfidenceGate: follow-up prompts fire only when the primary
	// response clears this confidence.
	followUpConfidenceGate = 0.6
	maxFollowUps           = 2
	defaultFollowUpSpacing = time.Second
)

// NarrativeSource is the slice of the narrative client the orchestrator uses.
type NarrativeSource interface {
	Configured() bool
	Query(ctx context.Context, params narrative.QueryParams) (*narrative.Response, error)
}

// TradeSource is the slice of the trade client the orchestrator uses.
type TradeSource interface {
	Configured() bool
	FetchFamily(ctx context.Context, family trade.QueryFamily) ([]trade.Intervention, error)
}

// MacroSource is the slice of the macro client the orchestrator uses.
type MacroSource interface {
	Configured() bool
	FetchCategory(ctx context.Context, cat macro.Category) ([]macro.Observation, error)
}

// Orchestrator fans collection out across the three sources.
type Orchestrator struct {
	narrativeSrc  NarrativeSource
	tradeSrc      TradeSource
	macroSrc      MacroSource
	templates     []narrative.Template
	tradeFamilies []trade.QueryFamily
	macroCats     []macro.Category
	store         cache.Cache

	narrativeNorm *narrative.Normalizer
	tradeNorm     *trade.Normalizer
	macroNorm     *macro.Normalizer

	followUpSpacing time.Duration
}

func NewOrchestrator(n NarrativeSource, t TradeSource, m MacroSource, templates []narrative.Template, store cache.Cache) *Orchestrator {
	return &Orchestrator{
		narrativeSrc:    n,
		tradeSrc:        t,
		macroSrc:        m,
		templates:       templates,
		tradeFamilies:   trade.Families,
		macroCats:       macro.Categories,
		store:           store,
		narrativeNorm:   narrative.NewNormalizer(),
		tradeNorm:       trade.NewNormalizer(),
		macroNorm:       macro.NewNormalizer(),
		followUpSpacing: defaultFollowUpSpacing,
	}
}

// SetFollowUpSpacing overrides the inter-follow-up delay, used in tests.
func (o *Orchestrator) SetFollowUpSpacing(d time.Duration) { o.followUpSpacing = d }

// CollectAll runs the three source tasks concurrently and gathers whatever
// arrived. It returns a result even when every source failed.
func (o *Orchestrator) CollectAll(ctx context.Context) *intel.CollectionResult {
	result := &intel.CollectionResult{Status: make(map[intel.SourceType]intel.SourceStatus)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		records, status, errs := o.collectNarrative(ctx)
		mu.Lock()
		result.Narrative = records
		result.Status[intel.SourceNarrative] = status
		result.Errors = append(result.Errors, errs...)
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		records, status, errs := o.collectTrade(ctx)
		mu.Lock()
		result.Trade = records
		result.Status[intel.SourceTrade] = status
		result.Errors = append(result.Errors, errs...)
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		records, status, errs := o.collectMacro(ctx)
		mu.Lock()
		result.Macro = records
		result.Status[intel.SourceMacro] = status
		result.Errors = append(result.Errors, errs...)
		mu.Unlock()
	}()
	wg.Wait()

	fmt.Printf("[COLLECT] narrative=%d trade=%d macro=%d errors=%d\n",
		len(result.Narrative), len(result.Trade), len(result.Macro), len(result.Errors))
	return result
}

// collectNarrative executes the template catalog in priority order under the
// session-width semaphore. Follow-ups run inside their template's task.
func (o *Orchestrator) collectNarrative(ctx context.Context) ([]intel.Record, intel.SourceStatus, []string) {
	if !o.narrativeSrc.Configured() {
		return nil, intel.StatusUnconfigured, nil
	}

	sem := semaphore.NewWeighted(narrativeSessionWidth)
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []intel.Record
		errs    []string
		hits    int
	)

	for _, tpl := range o.templates {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(tpl narrative.Template) {
			defer wg.Done()
			defer sem.Release(1)

			recs, err := o.runTemplate(ctx, tpl)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Sprintf("narrative/%s: %v", tpl.ID, err))
				return
			}
			hits++
			records = append(records, recs...)
		}(tpl)
	}
	wg.Wait()

	if hits == 0 && (len(errs) > 0 || ctx.Err() != nil) {
		return nil, intel.StatusFailed, errs
	}
	return records, intel.StatusSuccess, errs
}

// runTemplate issues the primary query and, when warranted, its follow-ups.
func (o *Orchestrator) runTemplate(ctx context.Context, tpl narrative.Template) ([]intel.Record, error) {
	primary, err := o.queryCached(ctx, tpl.Category, tpl.Query)
	if err != nil {
		return nil, err
	}
	records := o.narrativeNorm.Normalize(primary)

	if primary.Confidence > followUpConfidenceGate {
		followUps := tpl.FollowUps
		if len(followUps) > maxFollowUps {
			followUps = followUps[:maxFollowUps]
		}
		for _, q := range followUps {
			if !o.pause(ctx) {
				break
			}
			resp, err := o.queryCached(ctx, tpl.Category, q)
			if err != nil {
				fmt.Printf("[COLLECT] follow-up failed for %s: %v\n", tpl.ID, err)
				continue
			}
			records = append(records, o.narrativeNorm.Normalize(resp)...)
		}
	}
	return records, nil
}

// queryCached is the read-through/write-back wrapper around one narrative
// query.
func (o *Orchestrator) queryCached(ctx context.Context, category, query string) (*narrative.Response, error) {
	params := map[string]interface{}{"category": category, "query": query}
	if raw, err := o.store.Get("narrative", params); err == nil {
		var resp narrative.Response
		if err := json.Unmarshal(raw, &resp); err == nil {
			return &resp, nil
		}
	}

	resp, err := o.narrativeSrc.Query(ctx, narrative.QueryParams{
		Message:        query,
		UserID:         "brief-engine",
		ConversationID: uuid.NewString(),
		Category:       category,
	})
	if err != nil {
		return nil, err
	}
	o.store.Set("narrative", params, resp)
	return resp, nil
}

// collectTrade fans out across the query families with full parallelism.
func (o *Orchestrator) collectTrade(ctx context.Context) ([]intel.Record, intel.SourceStatus, []string) {
	if !o.tradeSrc.Configured() {
		return nil, intel.StatusUnconfigured, nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []intel.Record
		errs    []string
		hits    int
	)

	for _, family := range o.tradeFamilies {
		wg.Add(1)
		go func(family trade.QueryFamily) {
			defer wg.Done()

			ivs, err := o.fetchFamilyCached(ctx, family)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Sprintf("trade/%s: %v", family.Name, err))
				return
			}
			hits++
			for _, iv := range ivs {
				records = append(records, o.tradeNorm.Normalize(iv, family.Name))
			}
		}(family)
	}
	wg.Wait()

	if hits == 0 && len(errs) > 0 {
		return nil, intel.StatusFailed, errs
	}
	return records, intel.StatusSuccess, errs
}

func (o *Orchestrator) fetchFamilyCached(ctx context.Context, family trade.QueryFamily) ([]trade.Intervention, error) {
	params := map[string]interface{}{"family": family.Name, "days_back": family.DaysBack, "limit": family.Limit}
	if raw, err := o.store.Get("trade", params); err == nil {
		var ivs []trade.Intervention
		if err := json.Unmarshal(raw, &ivs); err == nil {
			return ivs, nil
		}
	}

	ivs, err := o.tradeSrc.FetchFamily(ctx, family)
	if err != nil {
		return nil, err
	}
	o.store.Set("trade", params, ivs)
	return ivs, nil
}

// collectMacro fans out across the series categories with full parallelism.
func (o *Orchestrator) collectMacro(ctx context.Context) ([]intel.Record, intel.SourceStatus, []string) {
	if !o.macroSrc.Configured() {
		return nil, intel.StatusUnconfigured, nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []intel.Record
		errs    []string
		hits    int
	)

	for _, cat := range o.macroCats {
		wg.Add(1)
		go func(cat macro.Category) {
			defer wg.Done()

			obs, err := o.fetchCategoryCached(ctx, cat)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if retry.KindOf(err) == retry.KindParse {
					// No usable observations in the window is not a failure.
					hits++
					return
				}
				errs = append(errs, fmt.Sprintf("macro/%s: %v", cat.Name, err))
				return
			}
			hits++
			for _, ob := range obs {
				records = append(records, o.macroNorm.Normalize(ob, cat.Name))
			}
		}(cat)
	}
	wg.Wait()

	if hits == 0 && len(errs) > 0 {
		return nil, intel.StatusFailed, errs
	}
	return records, intel.StatusSuccess, errs
}

func (o *Orchestrator) fetchCategoryCached(ctx context.Context, cat macro.Category) ([]macro.Observation, error) {
	params := map[string]interface{}{"category": cat.Name, "days_back": cat.DaysBack}
	if raw, err := o.store.Get("macro", params); err == nil {
		var obs []macro.Observation
		if err := json.Unmarshal(raw, &obs); err == nil {
			return obs, nil
		}
	}

	obs, err := o.macroSrc.FetchCategory(ctx, cat)
	if err != nil {
		return nil, err
	}
	o.store.Set("macro", params, obs)
	return obs, nil
}

// pause waits the follow-up spacing, returning false on cancellation.
func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.followUpSpacing <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(o.followUpSpacing):
		return true
	case <-ctx.Done():
		return false
	}
}
