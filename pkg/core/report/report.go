// Package report renders the finished brief to disk: a markdown artifact, an
// HTML conversion of it, and a session metadata document. A failed write here
// fails the run; it is the one place where errors are not absorbed.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"aviation_intel/pkg/core/augment"
	"aviation_intel/pkg/core/intel"
)

const maxRecordsPerSector = 5

// Brief is everything the render sink consumes for one run.
type Brief struct {
	RunID       string
	GeneratedAt time.Time
	Summary     intel.ExecSummary
	Bundles     []intel.SectorBundle
	Records     []intel.Record
	Status      map[intel.SourceType]intel.SourceStatus
	Errors      []string
	Usage       augment.UsageSnapshot
}

// Metadata is the session_metadata.json document.
type Metadata struct {
	RunID       string                `json:"run_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	RecordCount int                   `json:"record_count"`
	Status      map[string]string     `json:"source_status"`
	Errors      []string              `json:"errors,omitempty"`
	Usage       augment.UsageSnapshot `json:"ai_usage"`
	Artifacts   []string              `json:"artifacts"`
}

// Writer renders briefs into one output directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer { return &Writer{dir: dir} }

// Write renders all three artifacts and returns their paths. Any disk error
// is returned to the caller and fails the run.
func (w *Writer) Write(b *Brief) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	stamp := b.GeneratedAt.Format("2006-01-02")
	mdPath := filepath.Join(w.dir, fmt.Sprintf("brief_%s.md", stamp))
	htmlPath := filepath.Join(w.dir, fmt.Sprintf("brief_%s.html", stamp))
	metaPath := filepath.Join(w.dir, "session_metadata.json")

	markdown := RenderMarkdown(b)
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write brief markdown: %w", err)
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &htmlBuf); err != nil {
		return nil, fmt.Errorf("failed to convert brief to HTML: %w", err)
	}
	if err := os.WriteFile(htmlPath, htmlBuf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write brief HTML: %w", err)
	}

	artifacts := []string{mdPath, htmlPath, metaPath}
	meta := Metadata{
		RunID:       b.RunID,
		GeneratedAt: b.GeneratedAt,
		RecordCount: len(b.Records),
		Status:      statusStrings(b.Status),
		Errors:      b.Errors,
		Usage:       b.Usage,
		Artifacts:   artifacts,
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, raw, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write session metadata: %w", err)
	}

	fmt.Printf("[REPORT] wrote %d artifacts to %s\n", len(artifacts), w.dir)
	return artifacts, nil
}

// RenderMarkdown builds the full brief document.
func RenderMarkdown(b *Brief) string {
	var md strings.Builder

	md.WriteString(fmt.Sprintf("# Aviation Intelligence Brief — %s\n\n", b.GeneratedAt.Format("January 2, 2006")))

	md.WriteString("## Executive Summary\n\n")
	md.WriteString("### Bottom Line\n\n")
	for _, line := range b.Summary.BottomLine {
		md.WriteString(fmt.Sprintf("- **%s**\n", line))
	}
	md.WriteString("\n### Key Findings\n\n")
	for _, f := range b.Summary.KeyFindings {
		md.WriteString(fmt.Sprintf("#### %s\n\n%s\n\n", f.Subheader, f.Content))
		for _, bullet := range f.Bullets {
			md.WriteString(fmt.Sprintf("- %s\n", bullet))
		}
		if len(f.Bullets) > 0 {
			md.WriteString("\n")
		}
	}
	md.WriteString("### Watch Factors\n\n")
	for _, wf := range b.Summary.WatchFactors {
		md.WriteString(fmt.Sprintf("- **%s** — watch: %s Why it matters: %s\n", wf.Indicator, wf.WhatToWatch, wf.WhyItMatters))
	}
	md.WriteString("\n")

	md.WriteString("## Sector Outlook\n\n")
	for _, bundle := range b.Bundles {
		if len(bundle.Records) == 0 {
			continue
		}
		md.WriteString(fmt.Sprintf("### %s\n\n", titleSector(bundle.Sector)))
		if bundle.Summary != "" {
			md.WriteString(bundle.Summary + "\n\n")
		}
		if len(bundle.Risks) > 0 {
			md.WriteString("**Risks**\n\n")
			for _, r := range bundle.Risks {
				md.WriteString(fmt.Sprintf("- %s\n", r))
			}
			md.WriteString("\n")
		}
		if len(bundle.Opportunities) > 0 {
			md.WriteString("**Opportunities**\n\n")
			for _, o := range bundle.Opportunities {
				md.WriteString(fmt.Sprintf("- %s\n", o))
			}
			md.WriteString("\n")
		}
	}

	md.WriteString("## Intelligence Detail\n\n")
	for i, r := range b.Records {
		md.WriteString(fmt.Sprintf("%d. _%s/%s_ — %s\n", i+1, r.SourceType, r.Category, r.ProcessedContent))
		if r.SoWhat != "" {
			md.WriteString(fmt.Sprintf("   - So what: %s\n", r.SoWhat))
		}
	}
	md.WriteString("\n")

	md.WriteString("## Source Status\n\n")
	md.WriteString("| Source | Status |\n|---|---|\n")
	for _, st := range intel.AllSourceTypes {
		if status, ok := b.Status[st]; ok {
			md.WriteString(fmt.Sprintf("| %s | %s |\n", st, status))
		}
	}

	return md.String()
}

func titleSector(s intel.Sector) string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func statusStrings(in map[intel.SourceType]intel.SourceStatus) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[string(k)] = string(v)
	}
	return out
}
