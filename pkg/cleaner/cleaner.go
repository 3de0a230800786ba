package cleaner

import (
	"regexp"
	"strings"
)

type CleanerConfig struct {
	// KeepBrokenLines leaves mid-paragraph line breaks in place.
	KeepBrokenLines bool
	// KeepPageLabels leaves "Page 12" style artifacts in the text.
	KeepPageLabels bool
}

type Cleaner struct {
	config CleanerConfig
}

var (
	// A line ending without sentence punctuation followed by a lowercase or
	// digit start was broken mid-paragraph by the PDF layout.
	brokenLine = regexp.MustCompile(`([^\n.?!:])\n([a-z0-9])`)

	// Bullet marker stranded on its own line.
	strandedBullet = regexp.MustCompile(`(?m)\n?^\s*•\s*\n\s*`)

	spaceRuns = regexp.MustCompile(`[ \t]+`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
	pageLabel = regexp.MustCompile(`(?i)\n?[ \t]*-?[ \t]*Page\s+\d+[ \t]*-?[ \t]*\n?`)
)

func NewWithConfig(config CleanerConfig) Cleaner {
	return Cleaner{
		config: config,
	}
}

// Clean normalises raw extracted text for downstream parsing.
func (c *Cleaner) Clean(raw string) string {
	if raw == "" {
		return ""
	}

	txt := raw

	if !c.config.KeepBrokenLines {
		// Repeated passes handle runs of consecutive broken lines, which a
		// single non-overlapping replace would leave half-joined.
		for brokenLine.MatchString(txt) {
			txt = brokenLine.ReplaceAllString(txt, "$1 $2")
		}
	}

	txt = strandedBullet.ReplaceAllString(txt, "\n• ")
	txt = spaceRuns.ReplaceAllString(txt, " ")
	txt = blankRuns.ReplaceAllString(txt, "\n\n")

	if !c.config.KeepPageLabels {
		txt = pageLabel.ReplaceAllString(txt, "\n")
	}

	return strings.TrimSpace(txt)
}
