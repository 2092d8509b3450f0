// Package merge combines normalized records across sources: global freshness
// filter, composite scoring with a stable sort, semantic de-duplication, and
// the topic priority pass that front-loads canonical sources.
package merge

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"aviation_intel/pkg/core/intel"
)

const (
	tradeFreshnessCutoff = 180 * 24 * time.Hour

	weightNarrative = 1.15
	weightTrade     = 1.0
	weightMacro     = 0.95

	fingerprintLen   = 200
	topicKeyLen      = 50
	jaccardThreshold = 0.75
)

// Merger merges per-source record lists into one ranked sequence.
type Merger struct {
	now func() time.Time
}

func NewMerger() *Merger { return &Merger{now: time.Now} }

// SetClock overrides the freshness clock, for tests.
func (m *Merger) SetClock(now func() time.Time) { m.now = now }

// Merge applies the four merge phases in order. Given identical inputs and a
// fixed clock the output is deterministic; the sort is stable so ties keep
// source order of appearance.
func (m *Merger) Merge(lists ...[]intel.Record) []intel.Record {
	var candidates []intel.Record
	for _, list := range lists {
		candidates = append(candidates, list...)
	}

	// Phase 1: global freshness filter. Only trade records carry a date
	// cutoff.
	fresh := candidates[:0:0]
	for _, r := range candidates {
		if r.SourceType == intel.SourceTrade && r.Trade != nil && r.Trade.HasImplemented {
			if m.now().Sub(r.Trade.DateImplemented) > tradeFreshnessCutoff {
				continue
			}
		}
		fresh = append(fresh, r)
	}

	// Phase 2: composite score, stable sort descending.
	sort.SliceStable(fresh, func(i, j int) bool {
		return m.CompositeScore(fresh[i]) > m.CompositeScore(fresh[j])
	})

	// Phase 3: semantic de-duplication against kept fingerprints.
	var kept []intel.Record
	var keptKeywords []map[string]bool
	for _, r := range fresh {
		kw := keywordSet(fingerprint(r))
		dup := false
		for _, existing := range keptKeywords {
			if jaccard(kw, existing) > jaccardThreshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, r)
		keptKeywords = append(keptKeywords, kw)
	}

	// Phase 4: topic priority resolution. Canonical sources are promoted to
	// the front for their natural topic; the append tail re-emits every kept
	// record not already emitted, so the pass is additive.
	var out []intel.Record
	emitted := make([]bool, len(kept))
	seenTopicKey := make(map[string]bool)

	for i, r := range kept {
		topic := detectTopic(r.ProcessedContent)
		switch topic {
		case topicEconomic:
			key := "economic_" + topicKey(r.ProcessedContent)
			if r.SourceType == intel.SourceMacro && !seenTopicKey[key] {
				seenTopicKey[key] = true
				out = append(out, r)
				emitted[i] = true
			}
		case topicTrade:
			key := "trade_" + topicKey(r.ProcessedContent)
			if r.SourceType == intel.SourceTrade && !seenTopicKey[key] {
				seenTopicKey[key] = true
				out = append(out, r)
				emitted[i] = true
			}
		default:
			out = append(out, r)
			emitted[i] = true
		}
	}
	for i, r := range kept {
		if !emitted[i] {
			out = append(out, r)
		}
	}

	return out
}

// CompositeScore is the ranking key: relevance x confidence x source weight x
// freshness factor.
func (m *Merger) CompositeScore(r intel.Record) float64 {
	return r.RelevanceScore * r.Confidence * sourceWeight(r) * m.freshnessFactor(r)
}

func sourceWeight(r intel.Record) float64 {
	switch r.SourceType {
	case intel.SourceNarrative:
		return weightNarrative
	case intel.SourceTrade:
		return weightTrade
	case intel.SourceMacro:
		return weightMacro
	}
	return 1.0
}

func (m *Merger) freshnessFactor(r intel.Record) float64 {
	switch r.SourceType {
	case intel.SourceTrade:
		if r.Trade != nil && r.Trade.HasImplemented {
			if m.now().Sub(r.Trade.DateImplemented) < 90*24*time.Hour {
				return 1.0
			}
			return 0.9
		}
		return 1.0
	case intel.SourceMacro:
		if r.Macro != nil && !r.Macro.ObservedAt.IsZero() {
			if m.now().Sub(r.Macro.ObservedAt) < 60*24*time.Hour {
				return 1.0
			}
			return 0.95
		}
		return 1.0
	}
	return 1.0
}

// fingerprint is the first 200 chars of processed content, lowercased and
// trimmed.
func fingerprint(r intel.Record) string {
	s := strings.ToLower(strings.TrimSpace(r.ProcessedContent))
	if len(s) > fingerprintLen {
		s = s[:fingerprintLen]
	}
	return s
}

func topicKey(processed string) string {
	s := strings.ToLower(processed)
	if len(s) > topicKeyLen {
		s = s[:topicKeyLen]
	}
	return s
}

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

var stopwords = map[string]bool{
	"the": true, "and": true, "with": true, "from": true, "that": true,
	"this": true, "have": true, "will": true, "been": true, "were": true,
	"their": true, "into": true, "over": true,
}

// keywordSet tokenizes a fingerprint into its significant terms: tokens
// longer than 3 chars minus the stopword set.
func keywordSet(fp string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenRe.FindAllString(fp, -1) {
		if len(tok) > 3 && !stopwords[tok] {
			set[tok] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

type topic int

const (
	topicGeneral topic = iota
	topicEconomic
	topicTrade
)

var economicTopicTerms = []string{
	"inflation", "interest rate", "gdp", "cpi", "federal reserve", "treasury", "mortgage",
}

var tradeTopicTerms = []string{
	"tariff", "sanction", "export control", "trade barrier", "intervention",
}

func detectTopic(processed string) topic {
	lower := strings.ToLower(processed)
	for _, term := range economicTopicTerms {
		if strings.Contains(lower, term) {
			return topicEconomic
		}
	}
	for _, term := range tradeTopicTerms {
		if strings.Contains(lower, term) {
			return topicTrade
		}
	}
	return topicGeneral
}
