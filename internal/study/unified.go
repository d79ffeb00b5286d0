package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/clipscholar/video-study-generator/internal/llm"
	"github.com/clipscholar/video-study-generator/pkg/log"
)

// errBadResponse marks a response that parsed or validated badly; only these
// failures are worth retrying with the same prompt. Upstream call errors
// propagate immediately.
var errBadResponse = errors.New("unusable generation response")

// GenerateAllMaterials produces summary, topics, flashcards and quizzes in a
// single model call over the given context text. The whole result passes the
// content gate or the attempt fails; by default there are no retries.
func (s *Service) GenerateAllMaterials(ctx context.Context, contextText string, opts Options) (*UnifiedMaterials, error) {
	opts = s.resolve(opts)
	if strings.TrimSpace(contextText) == "" {
		return nil, fmt.Errorf("context text is empty")
	}

	prompt := unifiedPrompt(contextText, opts)
	attempts := retryAttempts(opts.MaxRetries, 0)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := s.gen.Generate(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: s.systemPrompt("You create complete study materials from educational video content. Answer with valid JSON only.")},
			{Role: llm.RoleUser, Content: prompt},
		})
		if err != nil {
			return nil, fmt.Errorf("unified generation failed: %w", err)
		}

		materials, err := parseUnified(raw, opts)
		if err == nil {
			return materials, nil
		}
		lastErr = err
		if !errors.Is(err, errBadResponse) {
			return nil, err
		}
		if attempt < attempts {
			log.Warn("Unified generation attempt %d/%d rejected: %v", attempt, attempts, err)
		}
	}
	return nil, lastErr
}

func unifiedPrompt(contextText string, opts Options) string {
	var b strings.Builder
	b.WriteString("Create complete study materials from the timestamped excerpts below.\n\n")
	fmt.Fprintf(&b, "Produce a %s-length summary in a %s tone, exactly %d topics, and for every topic exactly %d flashcards and %d quiz questions.\n",
		opts.SummaryLength, opts.SummaryTone, opts.TopicsCount, opts.FlashcardsPerTopic, opts.QuizPerTopic)
	b.WriteString("Every quiz question has exactly 4 options, a 0-based correctAnswer index, the concept it tests, and a timestamp in strict MM:SS form.\n")
	b.WriteString("Never use placeholder text, bracketed template tokens or filler.\n\n")
	b.WriteString("Respond with JSON only, no prose:\n")
	b.WriteString(`{
  "summary": "...",
  "topics": ["..."],
  "flashcards": [{"topic": "...", "question": "...", "answer": "...", "difficulty": "easy|medium|hard", "timestamp": "MM:SS"}],
  "quiz": [{"topic": "...", "question": "...", "options": ["...", "...", "...", "..."], "correctAnswer": 0, "concept": "...", "timestamp": "MM:SS"}]
}`)
	b.WriteString("\n\nExcerpts:\n")
	b.WriteString(contextText)
	return b.String()
}

type unifiedPayload struct {
	Summary *string  `json:"summary"`
	Topics  []string `json:"topics"`

	Flashcards []struct {
		Topic      string  `json:"topic"`
		Question   *string `json:"question"`
		Answer     *string `json:"answer"`
		Difficulty string  `json:"difficulty"`
		Timestamp  string  `json:"timestamp"`
	} `json:"flashcards"`

	Quiz []struct {
		Topic         string   `json:"topic"`
		Question      *string  `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer *int     `json:"correctAnswer"`
		Concept       string   `json:"concept"`
		Timestamp     string   `json:"timestamp"`
	} `json:"quiz"`
}

// parseUnified extracts and validates one unified response. Items naming an
// undeclared topic are reassigned to the first declared topic rather than
// dropped, so declared counts stay honest.
func parseUnified(raw string, opts Options) (*UnifiedMaterials, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadResponse, err)
	}

	var payload unifiedPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", errBadResponse, err)
	}
	if payload.Summary == nil {
		return nil, fmt.Errorf("%w: summary missing", errBadResponse)
	}
	if len(payload.Topics) == 0 {
		return nil, fmt.Errorf("%w: topics missing", errBadResponse)
	}

	topics := make([]string, 0, len(payload.Topics))
	declared := make(map[string]bool, len(payload.Topics))
	for _, topic := range payload.Topics {
		topic = strings.TrimSpace(topic)
		if topic == "" || declared[topic] {
			continue
		}
		declared[topic] = true
		topics = append(topics, topic)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: topics missing", errBadResponse)
	}

	materials := &UnifiedMaterials{
		Summary:           strings.TrimSpace(*payload.Summary),
		Topics:            topics,
		FlashcardsByTopic: make(map[string][]Flashcard, len(topics)),
		QuizByTopic:       make(map[string][]MCQuestion, len(topics)),
	}
	for _, topic := range topics {
		materials.FlashcardsByTopic[topic] = []Flashcard{}
		materials.QuizByTopic[topic] = []MCQuestion{}
	}

	assign := func(topic string) string {
		topic = strings.TrimSpace(topic)
		if declared[topic] {
			return topic
		}
		return topics[0]
	}

	for _, item := range payload.Flashcards {
		if item.Question == nil || item.Answer == nil {
			return nil, fmt.Errorf("%w: flashcard missing question or answer", errBadResponse)
		}
		topic := assign(item.Topic)
		materials.FlashcardsByTopic[topic] = append(materials.FlashcardsByTopic[topic], Flashcard{
			Question:   strings.TrimSpace(*item.Question),
			Answer:     strings.TrimSpace(*item.Answer),
			Topic:      topic,
			Difficulty: normalizeDifficulty(item.Difficulty),
			Timestamp:  item.Timestamp,
		})
	}

	for _, item := range payload.Quiz {
		if item.Question == nil || item.CorrectAnswer == nil {
			return nil, fmt.Errorf("%w: quiz question missing fields", errBadResponse)
		}
		topic := assign(item.Topic)
		materials.QuizByTopic[topic] = append(materials.QuizByTopic[topic], MCQuestion{
			Question:      strings.TrimSpace(*item.Question),
			Options:       item.Options,
			CorrectAnswer: *item.CorrectAnswer,
			Concept:       strings.TrimSpace(item.Concept),
			Timestamp:     item.Timestamp,
		})
	}

	if report := ValidateUnified(materials); !report.Valid {
		return nil, fmt.Errorf("%w: %s", errBadResponse, strings.Join(report.Errors, "; "))
	}
	return materials, nil
}
