// Package safety implements the envelope wrapped around every external
// generative call: client-name redaction on the way out, factual grounding
// and prohibited-content checks on the way back.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"aviation_intel/pkg/core/intel"
)

// Sanitizer replaces configured client company names with sector-tagged
// tokens before any text leaves the process. Replacement is word-bounded and
// case-insensitive; structured fields are never touched.
type Sanitizer struct {
	rules []sanitizeRule
}

type sanitizeRule struct {
	pattern *regexp.Regexp
	token   string
}

// NewSanitizer builds the replacement table from the client → sector mapping.
func NewSanitizer(clients map[string]intel.Sector) *Sanitizer {
	s := &Sanitizer{}
	for name, sec := range clients {
		if strings.TrimSpace(name) == "" {
			continue
		}
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		token := fmt.Sprintf("[%s_CLIENT]", strings.ToUpper(string(sec)))
		s.rules = append(s.rules, sanitizeRule{pattern: pattern, token: token})
	}
	return s
}

// SanitizeText rewrites one text field.
func (s *Sanitizer) SanitizeText(text string) string {
	for _, rule := range s.rules {
		text = rule.pattern.ReplaceAllString(text, rule.token)
	}
	return text
}

// SanitizeRecords returns copies of the records with the three text fields
// rewritten. The originals are untouched; they remain the trusted corpus for
// grounding validation.
func (s *Sanitizer) SanitizeRecords(records []intel.Record) []intel.Record {
	out := make([]intel.Record, len(records))
	for i, r := range records {
		r.RawContent = s.SanitizeText(r.RawContent)
		r.ProcessedContent = s.SanitizeText(r.ProcessedContent)
		r.SoWhat = s.SanitizeText(r.SoWhat)
		out[i] = r
	}
	return out
}
