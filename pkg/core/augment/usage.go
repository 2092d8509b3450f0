package augment

import (
	"fmt"
	"sync"
)

// Rough token and pricing estimates for budget tracking. Token counts are
// approximated at 4 characters per token; costs use flat per-1k rates.
const (
	charsPerToken      = 4
	inputCostPer1kUSD  = 0.000075
	outputCostPer1kUSD = 0.0003
)

// UsageTracker accumulates per-process generation usage: call counts, token
// estimates, and cost. Safe for concurrent use.
type UsageTracker struct {
	mu           sync.Mutex
	calls        int
	failures     int
	inputTokens  int
	outputTokens int
}

// UsageSnapshot is a point-in-time copy for logs and run metadata.
type UsageSnapshot struct {
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

func NewUsageTracker() *UsageTracker { return &UsageTracker{} }

// RecordCall registers one generation attempt with its prompt and response
// text. Failed calls still count their input tokens.
func (u *UsageTracker) RecordCall(prompt, response string, success bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if !success {
		u.failures++
	}
	u.inputTokens += estimateTokens(prompt)
	u.outputTokens += estimateTokens(response)
}

func (u *UsageTracker) Snapshot() UsageSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UsageSnapshot{
		Calls:        u.calls,
		Failures:     u.failures,
		InputTokens:  u.inputTokens,
		OutputTokens: u.outputTokens,
		CostUSD: float64(u.inputTokens)/1000*inputCostPer1kUSD +
			float64(u.outputTokens)/1000*outputCostPer1kUSD,
	}
}

func (s UsageSnapshot) String() string {
	return fmt.Sprintf("calls=%d failures=%d tokens_in=%d tokens_out=%d cost=$%.6f",
		s.Calls, s.Failures, s.InputTokens, s.OutputTokens, s.CostUSD)
}

func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/charsPerToken + 1
}
