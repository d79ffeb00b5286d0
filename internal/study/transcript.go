package study

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clipscholar/video-study-generator/internal/llm"
	"github.com/clipscholar/video-study-generator/internal/segment"
	"github.com/clipscholar/video-study-generator/pkg/log"
)

// GenerateFromTranscript produces summary, quiz and flashcards from raw
// transcript segments, skipping search fusion entirely. Question counts scale
// with transcript length. Parsed timestamps are clamped into the video bounds;
// everything else passes the content gate unchanged or the attempt fails.
// By default a rejected attempt is retried once with the identical prompt.
func (s *Service) GenerateFromTranscript(ctx context.Context, segments []TranscriptSegment, videoDuration float64, opts Options) (*TranscriptMaterials, error) {
	opts = s.resolve(opts)

	var b strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	transcript := b.String()
	if transcript == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	// Output counts scale with transcript length, floored at 5 each.
	quizCount := max(5, len(transcript)/200)
	flashcardCount := max(5, len(transcript)/150)

	prompt := transcriptPrompt(transcript, quizCount, flashcardCount, opts)
	attempts := retryAttempts(opts.MaxRetries, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		materials, err := s.transcriptAttempt(ctx, prompt, videoDuration)
		if err == nil {
			return materials, nil
		}
		lastErr = err
		if attempt < attempts {
			log.Warn("Transcript generation attempt %d/%d failed: %v", attempt, attempts, err)
		}
	}
	return nil, lastErr
}

func (s *Service) transcriptAttempt(ctx context.Context, prompt string, videoDuration float64) (*TranscriptMaterials, error) {
	raw, err := s.gen.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: s.systemPrompt("You create study materials from video transcripts. Answer with valid JSON only.")},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("transcript generation failed: %w", err)
	}

	materials, err := parseTranscript(raw, videoDuration)
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func transcriptPrompt(transcript string, quizCount, flashcardCount int, opts Options) string {
	var b strings.Builder
	b.WriteString("Create study materials from the video transcript below.\n\n")
	fmt.Fprintf(&b, "Produce a %s-length summary in a %s tone, exactly %d quiz questions and exactly %d flashcards.\n",
		opts.SummaryLength, opts.SummaryTone, quizCount, flashcardCount)
	b.WriteString("Every quiz question has exactly 4 options, a 0-based correctAnswer index, the concept it tests, and a timestamp in strict MM:SS form.\n")
	b.WriteString("Never use placeholder text, bracketed template tokens or filler.\n\n")
	b.WriteString("Respond with JSON only, no prose:\n")
	b.WriteString(`{
  "summary": "...",
  "quiz": [{"question": "...", "options": ["...", "...", "...", "..."], "correctAnswer": 0, "concept": "...", "timestamp": "MM:SS"}],
  "flashcards": [{"question": "...", "answer": "...", "difficulty": "easy|medium|hard", "timestamp": "MM:SS"}]
}`)
	b.WriteString("\n\nTranscript:\n")
	b.WriteString(transcript)
	return b.String()
}

type transcriptPayload struct {
	Summary *string `json:"summary"`

	Quiz []struct {
		Question      *string  `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer *int     `json:"correctAnswer"`
		Concept       string   `json:"concept"`
		Timestamp     string   `json:"timestamp"`
	} `json:"quiz"`

	Flashcards []struct {
		Question   *string `json:"question"`
		Answer     *string `json:"answer"`
		Difficulty string  `json:"difficulty"`
		Timestamp  string  `json:"timestamp"`
	} `json:"flashcards"`
}

func parseTranscript(raw string, videoDuration float64) (*TranscriptMaterials, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var payload transcriptPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("parsing transcript response: %w", err)
	}
	if payload.Summary == nil {
		return nil, fmt.Errorf("summary missing from response")
	}

	materials := &TranscriptMaterials{
		Summary:    strings.TrimSpace(*payload.Summary),
		Quiz:       make([]MCQuestion, 0, len(payload.Quiz)),
		Flashcards: make([]Flashcard, 0, len(payload.Flashcards)),
	}

	for _, item := range payload.Quiz {
		if item.Question == nil || item.CorrectAnswer == nil {
			return nil, fmt.Errorf("quiz question missing fields")
		}
		materials.Quiz = append(materials.Quiz, MCQuestion{
			Question:      strings.TrimSpace(*item.Question),
			Options:       item.Options,
			CorrectAnswer: *item.CorrectAnswer,
			Concept:       strings.TrimSpace(item.Concept),
			Timestamp:     clampTimestamp(item.Timestamp, videoDuration),
		})
	}

	for _, item := range payload.Flashcards {
		if item.Question == nil || item.Answer == nil {
			return nil, fmt.Errorf("flashcard missing question or answer")
		}
		materials.Flashcards = append(materials.Flashcards, Flashcard{
			Question:   strings.TrimSpace(*item.Question),
			Answer:     strings.TrimSpace(*item.Answer),
			Difficulty: normalizeDifficulty(item.Difficulty),
			Timestamp:  clampTimestamp(item.Timestamp, videoDuration),
		})
	}

	if report := ValidateTranscript(materials); !report.Valid {
		return nil, fmt.Errorf("materials rejected: %s", strings.Join(report.Errors, "; "))
	}
	return materials, nil
}

// clampTimestamp pulls a parsed MM:SS timecode into [0, videoDuration].
// Unparseable values pass through untouched and fail validation instead.
func clampTimestamp(ts string, videoDuration float64) string {
	sec, ok := segment.ParseTimestamp(ts)
	if !ok {
		return ts
	}
	if videoDuration > 0 {
		sec = segment.Clamp(sec, videoDuration)
	}
	return segment.FormatTimestamp(sec)
}
