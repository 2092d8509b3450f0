// Package augment wraps the external generation service behind the safety
// envelope: sanitize on the way out, grounding validation on the way back,
// deterministic fallback whenever anything fails. Augmentation never fails
// the run.
package augment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aviation_intel/pkg/core/intel"
	"aviation_intel/pkg/core/llm"
	"aviation_intel/pkg/core/retry"
	"aviation_intel/pkg/core/safety"
)

const (
	defaultCallTimeout = 60 * time.Second
	generateTemp       = 0.3
	minSoWhatLength    = 20
)

// Client drives AI augmentation for one run.
type Client struct {
	provider  llm.Provider
	sanitizer *safety.Sanitizer
	usage     *UsageTracker
	enabled   bool
	timeout   time.Duration
}

func NewClient(provider llm.Provider, sanitizer *safety.Sanitizer, enabled bool) *Client {
	return &Client{
		provider:  provider,
		sanitizer: sanitizer,
		usage:     NewUsageTracker(),
		enabled:   enabled,
		timeout:   defaultCallTimeout,
	}
}

// Usage returns the accumulated generation usage for this client.
func (c *Client) Usage() UsageSnapshot { return c.usage.Snapshot() }

func (c *Client) active() bool {
	return c.enabled && c.provider != nil && c.provider.Configured()
}

// GenerateExecSummary produces the executive summary from the merged records,
// falling back to the supplied deterministic summary on any failure. The
// generated text is validated in strict mode against the original records.
func (c *Client) GenerateExecSummary(ctx context.Context, records []intel.Record, fallback intel.ExecSummary) intel.ExecSummary {
	if !c.active() {
		fmt.Printf("[AI] augmentation disabled or unconfigured, using fallback summary\n")
		return fallback
	}

	sanitized := c.sanitizer.SanitizeRecords(records)
	prompt := buildExecSummaryPrompt(selectTopRecords(sanitized, promptTopK))

	response, err := c.generate(ctx, prompt, execSummarySystemPrompt)
	if err != nil {
		fmt.Printf("[AI] summary generation failed: %v, using fallback\n", err)
		return fallback
	}

	corpus := safety.BuildCorpus(records)
	valid, unsupported := safety.NewValidator(true).Validate(response, corpus)
	if !valid {
		fmt.Printf("[AI] summary rejected by validation, unsupported claims %s, using fallback\n",
			safety.Describe(unsupported))
		return fallback
	}

	summary := parseExecSummary(response)
	if !usableSummary(summary) {
		fmt.Printf("[AI] generated summary missing required sections, using fallback\n")
		return fallback
	}
	return summary
}

// GenerateSoWhat produces a so-what statement for one record, validated in
// lenient mode. Short or invalid outputs fall back.
func (c *Client) GenerateSoWhat(ctx context.Context, r intel.Record, fallback string) string {
	if !c.active() {
		return fallback
	}

	sanitized := c.sanitizer.SanitizeRecords([]intel.Record{r})
	prompt := buildSoWhatPrompt(sanitized[0])

	response, err := c.generate(ctx, prompt, soWhatSystemPrompt)
	if err != nil {
		fmt.Printf("[AI] so-what generation failed for %s record: %v\n", r.SourceType, err)
		return fallback
	}

	response = strings.TrimSpace(response)
	if len(response) < minSoWhatLength {
		return fallback
	}

	corpus := safety.BuildCorpus([]intel.Record{r})
	if valid, _ := safety.NewValidator(false).Validate(response, corpus); !valid {
		return fallback
	}
	return response
}

// AugmentSoWhats rewrites so-what statements across the merged records: the
// highest-ranked records trade their normalizer templates for generated
// statements (keeping the template whenever generation fails or is
// rejected), and any record still without one gets the deterministic
// template. Generation calls run serialized to keep cost and rate-limit
// exposure predictable.
func (c *Client) AugmentSoWhats(ctx context.Context, records []intel.Record) []intel.Record {
	for i, r := range records {
		if r.SoWhat == "" {
			records[i] = r.WithSoWhat(FallbackSoWhat(r))
		}
	}
	if !c.active() {
		return records
	}
	for _, i := range topRecordIndexes(records, promptTopK) {
		r := records[i]
		records[i] = r.WithSoWhat(c.GenerateSoWhat(ctx, r, FallbackSoWhat(r)))
	}
	return records
}

// generate issues one provider call under the retry policy with a per-attempt
// timeout, recording usage for every attempt.
func (c *Client) generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return retry.Do(ctx, retry.AIPolicy, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		options := map[string]interface{}{"temperature": generateTemp}
		response, err := c.provider.GenerateResponse(callCtx, prompt, systemPrompt, options)
		c.usage.RecordCall(prompt, response, err == nil)
		if err != nil {
			return "", retry.Transient(err)
		}
		return response, nil
	})
}
