package study

import (
	"fmt"

	"github.com/clipscholar/video-study-generator/internal/search"
)

// Difficulty levels attached to generated flashcards and quiz questions.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Quiz question types produced by the per-topic chain strategy.
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionShortAnswer    = "short_answer"
	QuestionTrueFalse      = "true_false"
)

// Flashcard is one question/answer pair tied to a topic.
// Question and Answer are always non-empty and free of placeholder text.
type Flashcard struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Timestamp  string `json:"timestamp,omitempty"` // "MM:SS"
	Reference  string `json:"reference,omitempty"`
}

// QuizChoice is one selectable option of a multiple-choice question.
type QuizChoice struct {
	ID   string `json:"id"` // a..d
	Text string `json:"text"`
}

// QuizQuestion is the chain-strategy question shape. Multiple-choice
// questions carry exactly four choices with ids a..d; Answer is a choice id
// for multiple choice and literal text otherwise.
type QuizQuestion struct {
	Type        string       `json:"type"`
	Prompt      string       `json:"prompt"`
	Choices     []QuizChoice `json:"choices,omitempty"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation,omitempty"`
	Topic       string       `json:"topic"`
	Difficulty  string       `json:"difficulty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// MCQuestion is the strict four-option shape used by the unified and
// direct-transcript strategies. CorrectAnswer is a 0-based index into
// Options; Timestamp is a strict "MM:SS" timecode.
type MCQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Concept       string   `json:"concept"`
	Timestamp     string   `json:"timestamp"`
}

// StudyMaterials is the chain-strategy result handed to the cache on success
// and read-only afterward.
type StudyMaterials struct {
	VideoID           string                    `json:"video_id"`
	Hits              []search.Hit              `json:"hits"`
	Summary           string                    `json:"summary"`
	Language          string                    `json:"language,omitempty"`
	Topics            []string                  `json:"topics"`
	FlashcardsByTopic map[string][]Flashcard    `json:"flashcards_by_topic"`
	QuizByTopic       map[string][]QuizQuestion `json:"quiz_by_topic"`
}

// UnifiedMaterials is the single-call strategy result: one generation
// produced the summary, topics and all per-topic material.
type UnifiedMaterials struct {
	Summary           string                  `json:"summary"`
	Topics            []string                `json:"topics"`
	FlashcardsByTopic map[string][]Flashcard  `json:"flashcards_by_topic"`
	QuizByTopic       map[string][]MCQuestion `json:"quiz_by_topic"`
}

// TranscriptMaterials is the direct-transcript strategy result.
type TranscriptMaterials struct {
	Summary    string       `json:"summary"`
	Quiz       []MCQuestion `json:"quiz"`
	Flashcards []Flashcard  `json:"flashcards"`
}

// TranscriptSegment is a raw transcript-like piece of segment text, e.g. a
// webhook-ingested embedding segment.
type TranscriptSegment struct {
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
	Text     string  `json:"text"`
}

// Option defaults for generation requests.
const (
	DefaultMaxHits            = 12
	DefaultMaxContextChars    = 3500
	DefaultTopicsCount        = 4
	DefaultFlashcardsPerTopic = 8
	DefaultQuizPerTopic       = 8
	DefaultSummaryLength      = "medium"
	DefaultSummaryTone        = "neutral"
)

// defaultTopic labels material when topic extraction finds nothing; per-topic
// generation always needs at least one topic.
const defaultTopic = "Key Takeaways"

// Options tunes one generation request. Zero values fall back to the
// documented defaults.
//
// MaxRetries controls repeat attempts after a failed generation: 0 uses the
// strategy default (one retry for the transcript strategy, none for the
// unified strategy), a negative value disables retries, a positive value is
// used as-is.
type Options struct {
	Query              string `json:"query,omitempty"`
	MaxHits            int    `json:"max_hits,omitempty"`
	MaxContextChars    int    `json:"max_context_chars,omitempty"`
	SummaryLength      string `json:"summary_length,omitempty"` // short|medium|long
	SummaryTone        string `json:"summary_tone,omitempty"`
	TopicsCount        int    `json:"topics_count,omitempty"`
	FlashcardsPerTopic int    `json:"flashcards_per_topic,omitempty"`
	QuizPerTopic       int    `json:"quiz_per_topic,omitempty"`
	MaxRetries         int    `json:"max_retries,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.MaxHits <= 0 {
		o.MaxHits = DefaultMaxHits
	}
	if o.MaxContextChars <= 0 {
		o.MaxContextChars = DefaultMaxContextChars
	}
	if o.SummaryLength == "" {
		o.SummaryLength = DefaultSummaryLength
	}
	if o.SummaryTone == "" {
		o.SummaryTone = DefaultSummaryTone
	}
	if o.TopicsCount <= 0 {
		o.TopicsCount = DefaultTopicsCount
	}
	if o.FlashcardsPerTopic <= 0 {
		o.FlashcardsPerTopic = DefaultFlashcardsPerTopic
	}
	if o.QuizPerTopic <= 0 {
		o.QuizPerTopic = DefaultQuizPerTopic
	}
	return o
}

// cacheKey builds the normalized signature used by the generation cache so
// that requests differing in query or counts do not share results.
func (o Options) cacheKey(videoID string) string {
	return fmt.Sprintf("%s|q=%s|h=%d|c=%d|t=%d|f=%d|z=%d|l=%s|o=%s",
		videoID, o.Query, o.MaxHits, o.MaxContextChars,
		o.TopicsCount, o.FlashcardsPerTopic, o.QuizPerTopic,
		o.SummaryLength, o.SummaryTone)
}

func retryAttempts(maxRetries, strategyDefault int) int {
	switch {
	case maxRetries < 0:
		return 1
	case maxRetries == 0:
		return 1 + strategyDefault
	default:
		return 1 + maxRetries
	}
}
