package augment

import (
	"strings"

	"aviation_intel/pkg/core/intel"
)

type parseSection int

const (
	sectionNone parseSection = iota
	sectionBottomLine
	sectionKeyFindings
	sectionWatchFactors
)

// parseExecSummary walks the generated text line by line, tracking the
// current section and the partially built finding or watch factor. A pending
// finding is emitted when the next [SUBHEADER:] opens or input ends; a
// pending watch factor analogously on the next [INDICATOR:].
func parseExecSummary(text string) intel.ExecSummary {
	var (
		summary intel.ExecSummary
		section = sectionNone
		finding *intel.Finding
		factor  *intel.WatchFactor
	)

	flushFinding := func() {
		if finding != nil && finding.Subheader != "" {
			summary.KeyFindings = append(summary.KeyFindings, *finding)
		}
		finding = nil
	}
	flushFactor := func() {
		if factor != nil && factor.Indicator != "" {
			summary.WatchFactors = append(summary.WatchFactors, *factor)
		}
		factor = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if s, ok := matchSectionHeader(line); ok {
			flushFinding()
			flushFactor()
			section = s
			continue
		}

		marker, value := matchMarker(line)
		switch section {
		case sectionBottomLine:
			summary.BottomLine = append(summary.BottomLine, stripBullet(line))

		case sectionKeyFindings:
			switch marker {
			case "SUBHEADER":
				flushFinding()
				finding = &intel.Finding{Subheader: value}
			case "CONTENT":
				if finding != nil {
					finding.Content = value
				}
			case "BULLET":
				if finding != nil && len(finding.Bullets) < 3 {
					finding.Bullets = append(finding.Bullets, value)
				}
			default:
				// Legacy flat bullets become bullets of the open finding.
				if finding != nil && isBulletLine(line) && len(finding.Bullets) < 3 {
					finding.Bullets = append(finding.Bullets, stripBullet(line))
				}
			}

		case sectionWatchFactors:
			switch marker {
			case "INDICATOR":
				flushFactor()
				factor = &intel.WatchFactor{Indicator: value}
			case "WHAT":
				if factor != nil {
					factor.WhatToWatch = value
				}
			case "WHY":
				if factor != nil {
					factor.WhyItMatters = value
				}
			default:
				if isBulletLine(line) {
					flushFactor()
					summary.WatchFactors = append(summary.WatchFactors, intel.WatchFactor{Indicator: stripBullet(line)})
				}
			}
		}
	}

	flushFinding()
	flushFactor()
	return summary
}

// matchSectionHeader recognizes the three section names, tolerating markdown
// decoration and trailing colons.
func matchSectionHeader(line string) (parseSection, bool) {
	cleaned := strings.ToUpper(strings.Trim(line, "#* :"))
	switch cleaned {
	case "BOTTOM LINE":
		return sectionBottomLine, true
	case "KEY FINDINGS":
		return sectionKeyFindings, true
	case "WATCH FACTORS":
		return sectionWatchFactors, true
	}
	return sectionNone, false
}

// matchMarker parses a "[NAME: value]" line into its marker name and value.
func matchMarker(line string) (string, string) {
	if !strings.HasPrefix(line, "[") {
		return "", ""
	}
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", ""
	}
	name := strings.ToUpper(strings.TrimSpace(line[1:colon]))
	value := strings.TrimSpace(strings.TrimSuffix(line[colon+1:], "]"))
	switch name {
	case "SUBHEADER", "CONTENT", "BULLET", "INDICATOR", "WHAT", "WHY":
		return name, value
	}
	return "", ""
}

func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "• ")
}

func stripBullet(line string) string {
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "• ")
	return strings.TrimSpace(line)
}

// usableSummary checks the parsed structure carries enough content to
// replace the fallback: a bottom line, at least one key finding, and the
// full three-factor watch list.
func usableSummary(s intel.ExecSummary) bool {
	return len(s.BottomLine) > 0 && len(s.KeyFindings) > 0 && len(s.WatchFactors) >= 3
}
