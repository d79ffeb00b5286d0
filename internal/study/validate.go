package study

import (
	"fmt"
	"regexp"
	"strings"
)

// Report aggregates validation findings for one generation result. It is a
// value, not an error: validation never throws, callers inspect Valid.
type Report struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

const minSummaryLength = 50

var (
	// Leading generic filler ("Sample summary ...", "Placeholder text ...").
	fillerRE = regexp.MustCompile(`(?i)^\s*(?:sample|placeholder|example|test|demo)\b`)
	loremRE  = regexp.MustCompile(`(?i)\blorem\s+ipsum\b`)

	// Bracketed role placeholders: [topic], [question 1], [option a], [TOPIC].
	bracketRoleRE = regexp.MustCompile(`(?i)\[\s*(?:topic|question|option|answer|choice|concept|summary|title|term|insert|text)s?\b[^\]]*\]`)
	bracketCapsRE = regexp.MustCompile(`\[[A-Z][A-Z0-9 _-]*\]`)

	// Phrases indicating the generator gave up instead of producing content.
	gaveUpRE = regexp.MustCompile(`(?i)\b(?:fallback|temporary|not available|unable to generate|could not generate)\b|(?i)due to .{0,60}limitations`)

	strictTimestampRE = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// checkText applies the zero-tolerance placeholder patterns to one free-text
// field and appends a reason per violation.
func checkText(label, value string, errs *[]string) {
	trimmed := strings.TrimSpace(value)

	if trimmed == "..." || trimmed == "…" {
		*errs = append(*errs, fmt.Sprintf("%s is a bare ellipsis", label))
		return
	}
	if fillerRE.MatchString(trimmed) {
		*errs = append(*errs, fmt.Sprintf("%s starts with filler text: %q", label, snippet(trimmed)))
	}
	if loremRE.MatchString(trimmed) {
		*errs = append(*errs, fmt.Sprintf("%s contains lorem ipsum", label))
	}
	if bracketRoleRE.MatchString(trimmed) || bracketCapsRE.MatchString(trimmed) {
		*errs = append(*errs, fmt.Sprintf("%s contains a bracketed placeholder: %q", label, snippet(trimmed)))
	}
	if gaveUpRE.MatchString(trimmed) {
		*errs = append(*errs, fmt.Sprintf("%s looks like giving-up boilerplate: %q", label, snippet(trimmed)))
	}
}

func snippet(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

func validateSummary(summary string, errs *[]string) {
	trimmed := strings.TrimSpace(summary)
	if len(trimmed) < minSummaryLength {
		*errs = append(*errs, fmt.Sprintf("summary is too short: %d chars (minimum %d)", len(trimmed), minSummaryLength))
	}
	checkText("summary", summary, errs)
}

func validateMCQuestion(label string, q MCQuestion, errs *[]string) {
	if strings.TrimSpace(q.Question) == "" {
		*errs = append(*errs, fmt.Sprintf("%s: question is empty", label))
	} else {
		checkText(label+": question", q.Question, errs)
	}

	if len(q.Options) != 4 {
		*errs = append(*errs, fmt.Sprintf("%s: expected exactly 4 options, got %d", label, len(q.Options)))
	} else {
		seen := make(map[string]bool, 4)
		for i, opt := range q.Options {
			trimmed := strings.TrimSpace(opt)
			if trimmed == "" {
				*errs = append(*errs, fmt.Sprintf("%s: option %d is empty", label, i))
				continue
			}
			if seen[trimmed] {
				*errs = append(*errs, fmt.Sprintf("%s: option %d duplicates another option", label, i))
			}
			seen[trimmed] = true
			checkText(fmt.Sprintf("%s: option %d", label, i), opt, errs)
		}
	}

	if q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
		*errs = append(*errs, fmt.Sprintf("%s: correctAnswer %d out of range [0,3]", label, q.CorrectAnswer))
	}

	if strings.TrimSpace(q.Concept) == "" {
		*errs = append(*errs, fmt.Sprintf("%s: concept is empty", label))
	} else {
		checkText(label+": concept", q.Concept, errs)
	}

	if !strictTimestampRE.MatchString(q.Timestamp) {
		*errs = append(*errs, fmt.Sprintf("%s: timestamp %q does not match MM:SS", label, q.Timestamp))
	}
}

func validateFlashcard(label string, f Flashcard, errs *[]string) {
	if strings.TrimSpace(f.Question) == "" {
		*errs = append(*errs, fmt.Sprintf("%s: question is empty", label))
	} else {
		checkText(label+": question", f.Question, errs)
	}
	if strings.TrimSpace(f.Answer) == "" {
		*errs = append(*errs, fmt.Sprintf("%s: answer is empty", label))
	} else {
		checkText(label+": answer", f.Answer, errs)
	}
}

// ValidateUnified applies the zero-tolerance gate to a unified-strategy
// result. Any error means the result must not be published: the caller
// retries or surfaces the failure, never patches the content.
func ValidateUnified(u *UnifiedMaterials) Report {
	var errs []string

	validateSummary(u.Summary, &errs)

	if len(u.Topics) == 0 {
		errs = append(errs, "no topics declared")
	}
	for _, topic := range u.Topics {
		checkText("topic "+topic, topic, &errs)

		cards := u.FlashcardsByTopic[topic]
		if len(cards) == 0 {
			errs = append(errs, fmt.Sprintf("topic %q has no flashcards", topic))
		}
		for i, card := range cards {
			validateFlashcard(fmt.Sprintf("flashcard %d of topic %q", i, topic), card, &errs)
		}

		quiz := u.QuizByTopic[topic]
		if len(quiz) == 0 {
			errs = append(errs, fmt.Sprintf("topic %q has no quiz questions", topic))
		}
		for i, q := range quiz {
			validateMCQuestion(fmt.Sprintf("quiz question %d of topic %q", i, topic), q, &errs)
		}
	}

	return Report{Valid: len(errs) == 0, Errors: errs}
}

// ValidateTranscript applies the zero-tolerance gate to a direct-transcript
// strategy result.
func ValidateTranscript(m *TranscriptMaterials) Report {
	var errs []string

	validateSummary(m.Summary, &errs)

	if len(m.Quiz) == 0 {
		errs = append(errs, "quiz is empty")
	}
	for i, q := range m.Quiz {
		validateMCQuestion(fmt.Sprintf("quiz question %d", i), q, &errs)
	}

	if len(m.Flashcards) == 0 {
		errs = append(errs, "flashcards are empty")
	}
	for i, card := range m.Flashcards {
		validateFlashcard(fmt.Sprintf("flashcard %d", i), card, &errs)
	}

	return Report{Valid: len(errs) == 0, Errors: errs}
}

// textViolations reports placeholder findings for one field; the chain
// strategy uses it to drop individual bad items instead of failing a request.
func textViolations(label, value string) []string {
	var errs []string
	checkText(label, value, &errs)
	return errs
}
