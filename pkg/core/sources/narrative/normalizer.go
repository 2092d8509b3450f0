package narrative

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"aviation_intel/pkg/core/intel"
)

// Hedging patterns: any sentence containing one is dropped so the brief never
// carries non-findings.
var hedgingPatterns = []string{
	"has not identified",
	"no evidence of",
	"insufficient data",
	"remains unclear",
	"cannot be determined",
	"it is difficult to say",
	"no specific information",
	"unable to confirm",
}

// Priority indicators select the sentences worth keeping from long unbulleted
// responses.
var priorityIndicators = []string{
	"significant", "forecast", "expects", "will", "rise", "fall",
	"increase", "decrease", "announced", "effective", "deadline", "risk",
}

var (
	numberedItemRe = regexp.MustCompile(`\n\d+\.\s`)
	bulletItemRe   = regexp.MustCompile(`\n- `)
	repeatPunctRe  = regexp.MustCompile(`([.!?,;:]){2,}`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	htmlTagRe      = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
)

const (
	minListFragment      = 100 // numbered and bulleted fragments
	minParagraphFragment = 150
	maxPrioritySentences = 5
)

// Normalizer lifts streamed narrative responses into Intelligence Records.
type Normalizer struct{}

func NewNormalizer() *Normalizer { return &Normalizer{} }

// Normalize converts one streamed response into zero or more records. A
// response carrying a numbered list, bulleted list or multiple paragraphs is
// split into one record per fragment; fragments below the length gate are
// discarded.
func (n *Normalizer) Normalize(resp *Response) []intel.Record {
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil
	}

	content := resp.Content
	if htmlTagRe.MatchString(content) {
		content = stripMarkup(content)
	}

	fragments := splitResponse(content)

	var records []intel.Record
	for _, frag := range fragments {
		processed := n.process(frag)
		if processed == "" {
			continue
		}
		rec := intel.Record{
			RawContent:       frag,
			ProcessedContent: processed,
			Category:         resp.Category,
			SourceType:       intel.SourceNarrative,
			Sources:          resp.Sources,
		}
		rec.RelevanceScore = intel.AviationRelevance(processed)
		rec.Confidence = narrativeConfidence(processed)
		rec.AffectedSectors = intel.AssignSectors(processed, rec.RelevanceScore)
		rec.ActionItems = intel.GenerateActionItems(processed)
		rec.SoWhat = templateSoWhat(resp.Category, processed)
		records = append(records, rec)
	}
	return records
}

// splitResponse breaks a response on numbered items, bullets or paragraph
// breaks, in that order of preference. Fragments below the delimiter's length
// gate are dropped; a response with no qualifying delimiter stays whole.
func splitResponse(content string) []string {
	// Pad with a newline so a list item at position zero still counts.
	padded := "\n" + content
	if items := numberedItemRe.FindAllStringIndex(padded, -1); len(items) >= 2 {
		return splitAt(padded, items, minListFragment)
	}
	if items := bulletItemRe.FindAllStringIndex(padded, -1); len(items) >= 2 {
		return splitAt(padded, items, minListFragment)
	}
	if paras := strings.Split(content, "\n\n"); len(paras) >= 3 {
		var out []string
		for _, p := range paras {
			p = strings.TrimSpace(p)
			if len(p) >= minParagraphFragment {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []string{content}
}

// splitAt cuts content at each delimiter match, keeping the delimiter with
// its fragment.
func splitAt(content string, matches [][]int, minLen int) []string {
	var bounds []int
	for _, m := range matches {
		bounds = append(bounds, m[0])
	}
	bounds = append(bounds, len(content))

	var out []string
	// Leading text before the first item counts as its own fragment.
	if head := strings.TrimSpace(content[:bounds[0]]); len(head) >= minLen {
		out = append(out, head)
	}
	for i := 0; i < len(bounds)-1; i++ {
		frag := strings.TrimSpace(content[bounds[i]:bounds[i+1]])
		if len(frag) >= minLen {
			out = append(out, frag)
		}
	}
	return out
}

// process cleans one fragment: whitespace and punctuation normalization,
// hedged-sentence removal, title-cased sentence initials, and priority
// sentence extraction for long flat text.
func (n *Normalizer) process(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = repeatPunctRe.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(text)

	sentences := splitSentences(text)
	kept := sentences[:0:0]
	for _, s := range sentences {
		if !isHedged(s) {
			kept = append(kept, titleCaseInitial(s))
		}
	}
	if len(kept) == 0 {
		return ""
	}

	// Long flat responses get reduced to their priority sentences.
	hasStructure := structuralMarkerRe.MatchString(text)
	if len(text) > 500 && !hasStructure && len(kept) > 3 {
		var priority []string
		for _, s := range kept {
			lower := strings.ToLower(s)
			for _, ind := range priorityIndicators {
				if strings.Contains(lower, ind) {
					priority = append(priority, s)
					break
				}
			}
			if len(priority) == maxPrioritySentences {
				break
			}
		}
		if len(priority) > 0 {
			kept = priority
		}
	}

	return strings.Join(kept, " ")
}

// narrativeConfidence: base 0.7, +0.1 structure, +0.1 any digit, +0.1 for
// mid-length text, +0.05 for long text, clamped to 1.0.
func narrativeConfidence(processed string) float64 {
	score := 0.7
	if structuralMarkerRe.MatchString(processed) {
		score += 0.1
	}
	if strings.ContainsAny(processed, "0123456789") {
		score += 0.1
	}
	if n := len(processed); n > 100 && n < 1000 {
		score += 0.1
	} else if n >= 1000 {
		score += 0.05
	}
	return intel.Clamp01(score)
}

func isHedged(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, p := range hedgingPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// splitSentences is a pragmatic splitter on terminal punctuation; it keeps
// the terminator with its sentence.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Avoid breaking on decimals like 3.5.
			if r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
				continue
			}
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func titleCaseInitial(sentence string) string {
	runes := []rune(sentence)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
		if !unicode.IsSpace(r) && r != '-' && r != '•' && r != '*' && !unicode.IsDigit(r) && r != '.' {
			break
		}
	}
	return string(runes)
}

// stripMarkup extracts text from HTML-bearing payloads.
func stripMarkup(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return htmlTagRe.ReplaceAllString(content, " ")
	}
	return strings.TrimSpace(doc.Text())
}

// templateSoWhat builds the deterministic per-category implication used until
// (and unless) AI augmentation replaces it.
func templateSoWhat(category, processed string) string {
	lead := firstSentence(processed)
	switch category {
	case "geopolitical":
		return fmt.Sprintf("Monitor routing and permissions exposure: %s", lead)
	case "fuel":
		return fmt.Sprintf("Factor into trip cost and hedging decisions: %s", lead)
	case "regulatory":
		return fmt.Sprintf("Review compliance impact before next operations cycle: %s", lead)
	case "demand":
		return fmt.Sprintf("Align fleet and crew planning with demand signal: %s", lead)
	case "economic":
		return fmt.Sprintf("Watch client spending implications: %s", lead)
	default:
		return fmt.Sprintf("Assess operational impact: %s", lead)
	}
}

func firstSentence(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return text
	}
	return sentences[0]
}
