package study

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	boldRE       = regexp.MustCompile(`\*\*([^*\n]+?)\*\*|__([^_\n]+?)__`)
	sectionRE    = regexp.MustCompile(`(?i)^\s*(?:#+\s*)?(?:key|main|core)\s+(?:concepts|topics|points|ideas)\b`)
	headingRE    = regexp.MustCompile(`(?i)^\s*#+\s`)
	trailParenRE = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	capPhraseRE  = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
)

// ExtractTopics derives up to maxTopics short topic labels from a generated
// summary. Three tiers are applied until enough topics are found: bold-marked
// phrases, heading-like lines inside a "key concepts" section, and
// capitalized multi-word phrases anywhere in the text. Discovery order is
// preserved and exact duplicates are skipped. Pure function: the same summary
// always yields the same list.
//
// Callers must substitute a single default label when the result is empty;
// per-topic generation requires at least one topic.
func ExtractTopics(summary string, maxTopics int) []string {
	if maxTopics <= 0 {
		return nil
	}

	topics := make([]string, 0, maxTopics)
	seen := make(map[string]bool)

	add := func(candidate string) {
		candidate = cleanTopic(candidate)
		if candidate == "" || seen[candidate] {
			return
		}
		seen[candidate] = true
		topics = append(topics, candidate)
	}

	// Tier 1: bold-style emphasis.
	for _, m := range boldRE.FindAllStringSubmatch(summary, -1) {
		if len(topics) >= maxTopics {
			return topics
		}
		text := m[1]
		if text == "" {
			text = m[2]
		}
		add(text)
	}

	// Tier 2: heading-like lines inside a "key concepts" section.
	if len(topics) < maxTopics {
		for _, line := range keyConceptLines(summary) {
			if len(topics) >= maxTopics {
				return topics
			}
			add(line)
		}
	}

	// Tier 3: capitalized multi-word phrases across the whole summary.
	if len(topics) < maxTopics {
		for _, phrase := range capPhraseRE.FindAllString(summary, -1) {
			if len(topics) >= maxTopics {
				return topics
			}
			add(phrase)
		}
	}

	return topics
}

// keyConceptLines returns candidate heading lines from the first detected
// "key concepts" section: lines starting with a capital after an optional
// bullet, cut at the first colon or spaced dash, until the section ends at a
// blank line or a new markdown heading.
func keyConceptLines(summary string) []string {
	lines := strings.Split(summary, "\n")

	start := -1
	for i, line := range lines {
		if sectionRE.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var out []string
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(out) > 0 {
				break
			}
			continue
		}
		if headingRE.MatchString(line) {
			break
		}
		if candidate, ok := headingCandidate(trimmed); ok {
			out = append(out, candidate)
		}
	}
	return out
}

// headingCandidate strips a bullet/number prefix and keeps the phrase before
// the first separator, requiring a leading capital and a short label.
func headingCandidate(line string) (string, bool) {
	line = strings.TrimLeft(line, "-*•\t ")
	line = strings.TrimLeft(line, "0123456789.) ")
	if line == "" {
		return "", false
	}

	runes := []rune(line)
	if !unicode.IsUpper(runes[0]) {
		return "", false
	}

	if idx := strings.Index(line, ":"); idx >= 0 {
		line = line[:idx]
	} else if idx := strings.Index(line, " - "); idx >= 0 {
		line = line[:idx]
	} else if idx := strings.Index(line, " – "); idx >= 0 {
		line = line[:idx]
	}

	line = strings.TrimSpace(line)
	if line == "" || len(line) > 60 || len(strings.Fields(line)) > 6 {
		return "", false
	}
	return line, true
}

func cleanTopic(s string) string {
	s = strings.TrimSpace(s)
	s = trailParenRE.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t:–—-")
	if len(s) < 2 {
		return ""
	}
	return s
}
