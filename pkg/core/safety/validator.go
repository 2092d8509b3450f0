package safety

import (
	"fmt"
	"strings"

	"regexp"

	"aviation_intel/pkg/core/intel"
)

// Claim is one extracted factual assertion, case-preserving, tagged with its
// pattern type.
type Claim struct {
	Type  string
	Value string
}

func (c Claim) String() string { return c.Type + ":" + c.Value }

// Fixed extraction patterns. Generic numbers of one or two digits are skipped
// later to avoid false positives on list markers and small counts.
var claimPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"percentages", regexp.MustCompile(`\d+(?:\.\d+)?%`)},
	{"dollar_amounts", regexp.MustCompile(`\$\d+(?:\.\d+)?\s*(?:thousand|million|billion|trillion)?`)},
	{"dates", regexp.MustCompile(`(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}|\d{4}-\d{2}-\d{2}`)},
	{"numbers", regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)},
	{"countries", regexp.MustCompile(`\b(?:United States|China|Russia|Germany|France|United Kingdom|Japan|India|Brazil|Canada|Mexico|Iran|Saudi Arabia)\b`)},
	{"companies", regexp.MustCompile(`\b[A-Z][A-Za-z]+\s+(?:Inc|Corp|Ltd|LLC|GmbH|SA|PLC)\.?\b`)},
}

// Prohibited patterns: first-person language, self-assessment, and citations
// of unprovided sources. "Information not available" matches the last pattern
// textually but is explicitly allowed.
var prohibitedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bI\s+(?:believe|think|feel|assume)\b`),
	regexp.MustCompile(`(?i)\bin my (?:view|opinion|assessment)\b`),
	regexp.MustCompile(`(?i)\bas an ai\b`),
	regexp.MustCompile(`(?i)\b(?:according to|per) (?:my|our) (?:sources|research|knowledge)\b`),
	regexp.MustCompile(`(?i)\binformation not \w+\b`),
}

const allowedCarveOut = "information not available"

// Validator checks generated text against the trusted source corpus.
type Validator struct {
	Strict bool
	// LenientRatio is the tolerated share of unsupported claims in lenient
	// mode.
	LenientRatio float64
}

func NewValidator(strict bool) *Validator {
	return &Validator{Strict: strict, LenientRatio: 0.2}
}

// BuildCorpus concatenates the three text fields of the ORIGINAL records.
// Sanitized copies never feed the corpus.
func BuildCorpus(records []intel.Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.RawContent)
		b.WriteString("\n")
		b.WriteString(r.ProcessedContent)
		b.WriteString("\n")
		b.WriteString(r.SoWhat)
		b.WriteString("\n")
	}
	return b.String()
}

// ExtractClaims pulls factual claims out of generated text. Extraction is
// case-preserving; short generic numbers are skipped.
func ExtractClaims(text string) []Claim {
	var claims []Claim
	seen := make(map[string]bool)
	covered := make([]bool, len(text))

	for _, cp := range claimPatterns {
		for _, loc := range cp.re.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if cp.name == "numbers" {
				// Skip bare numbers of <=2 digits and spans already claimed
				// by a richer pattern (percent, dollar, date).
				if len(strings.ReplaceAll(strings.ReplaceAll(value, ".", ""), ",", "")) <= 2 {
					continue
				}
				overlapped := false
				for i := loc[0]; i < loc[1]; i++ {
					if covered[i] {
						overlapped = true
						break
					}
				}
				if overlapped {
					continue
				}
			}
			for i := loc[0]; i < loc[1]; i++ {
				covered[i] = true
			}
			c := Claim{Type: cp.name, Value: value}
			if !seen[c.String()] {
				claims = append(claims, c)
				seen[c.String()] = true
			}
		}
	}
	return claims
}

// Validate checks the generated text: prohibited patterns fail outright, and
// every extracted claim must appear (case-folded substring) in the corpus,
// all of them in strict mode and all but the lenient ratio otherwise.
// It returns the validity verdict and the unsupported claims.
func (v *Validator) Validate(generated, corpus string) (bool, []Claim) {
	if v.containsProhibited(generated) {
		return false, nil
	}

	claims := ExtractClaims(generated)
	if len(claims) == 0 {
		return true, nil
	}

	folded := strings.ToLower(corpus)
	var unsupported []Claim
	for _, c := range claims {
		if !strings.Contains(folded, strings.ToLower(c.Value)) {
			unsupported = append(unsupported, c)
		}
	}

	if len(unsupported) == 0 {
		return true, nil
	}
	if v.Strict {
		return false, unsupported
	}
	ratio := float64(len(unsupported)) / float64(len(claims))
	return ratio <= v.LenientRatio, unsupported
}

func (v *Validator) containsProhibited(text string) bool {
	for _, re := range prohibitedPatterns {
		for _, match := range re.FindAllString(text, -1) {
			// Explicit carve-out: the pattern matches "information not ..."
			// but "Information not available" is allowed verbatim.
			if strings.ToLower(match) == allowedCarveOut {
				continue
			}
			return true
		}
	}
	return false
}

// Describe renders unsupported claims for logs and run metadata.
func Describe(claims []Claim) string {
	parts := make([]string, len(claims))
	for i, c := range claims {
		parts[i] = c.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
