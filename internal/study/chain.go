package study

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/clipscholar/video-study-generator/internal/llm"
	"github.com/clipscholar/video-study-generator/pkg/log"
)

// generateChain runs the staged pipeline: fuse search hits, build the bounded
// context, summarize, extract topics, then generate flashcards and quizzes per
// topic concurrently. A failed per-topic generation yields an empty slice for
// that topic and never fails the request; summary failure does, because
// everything downstream depends on it.
func (s *Service) generateChain(ctx context.Context, videoID, taskID string, opts Options) (*StudyMaterials, error) {
	hits, err := s.fuser.Fuse(ctx, videoID, taskID, opts.Query, opts.MaxHits)
	if err != nil {
		return nil, fmt.Errorf("fusing search hits: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("no usable segments found for video %s", videoID)
	}

	contextText := BuildContext(hits, opts.MaxContextChars)
	if contextText == "" {
		return nil, fmt.Errorf("no usable segment text for video %s", videoID)
	}

	summary, err := s.gen.Summarize(ctx, contextText, s.summaryInstruction(opts))
	if err != nil {
		return nil, fmt.Errorf("generating summary: %w", err)
	}
	summary = strings.TrimSpace(summary)

	var errs []string
	validateSummary(summary, &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("summary rejected: %s", strings.Join(errs, "; "))
	}

	topics := ExtractTopics(summary, opts.TopicsCount)
	if len(topics) == 0 {
		topics = []string{defaultTopic}
	}

	materials := &StudyMaterials{
		VideoID:           videoID,
		Hits:              hits,
		Summary:           summary,
		Topics:            topics,
		FlashcardsByTopic: make(map[string][]Flashcard, len(topics)),
		QuizByTopic:       make(map[string][]QuizQuestion, len(topics)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, topic := range topics {
		wg.Add(2)

		go func(topic string) {
			defer wg.Done()
			cards, err := s.generateFlashcards(ctx, topic, contextText, opts.FlashcardsPerTopic)
			if err != nil {
				log.Warn("Flashcard generation failed for topic %q of video %s: %v", topic, videoID, err)
				cards = []Flashcard{}
			}
			mu.Lock()
			materials.FlashcardsByTopic[topic] = cards
			mu.Unlock()
		}(topic)

		go func(topic string) {
			defer wg.Done()
			quiz, err := s.generateQuiz(ctx, topic, contextText, opts.QuizPerTopic)
			if err != nil {
				log.Warn("Quiz generation failed for topic %q of video %s: %v", topic, videoID, err)
				quiz = []QuizQuestion{}
			}
			mu.Lock()
			materials.QuizByTopic[topic] = quiz
			mu.Unlock()
		}(topic)
	}
	wg.Wait()

	return materials, nil
}

func (s *Service) summaryInstruction(opts Options) string {
	var b strings.Builder
	b.WriteString("You summarize educational video content from timestamped excerpts.\n")
	if d := s.languageDirective(); d != "" {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	b.WriteString("Write a ")
	b.WriteString(opts.SummaryLength)
	b.WriteString("-length summary in a ")
	b.WriteString(opts.SummaryTone)
	b.WriteString(" tone.\n")
	b.WriteString("Mark the most important concepts in **bold** and finish with a 'Key concepts' section listing them one per line.\n")
	b.WriteString("Base the summary only on the excerpts. Never invent content and never use placeholder text.")
	return b.String()
}

type flashcardPayload struct {
	Flashcards []struct {
		Question   *string `json:"question"`
		Answer     *string `json:"answer"`
		Difficulty string  `json:"difficulty"`
		Timestamp  string  `json:"timestamp"`
	} `json:"flashcards"`
}

func (s *Service) generateFlashcards(ctx context.Context, topic, contextText string, count int) ([]Flashcard, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d flashcards about %q from the excerpts below.\n\n", count, topic)
	b.WriteString("Respond with JSON only, no prose:\n")
	b.WriteString(`{"flashcards": [{"question": "...", "answer": "...", "difficulty": "easy|medium|hard", "timestamp": "MM:SS"}]}`)
	b.WriteString("\n\nExcerpts:\n")
	b.WriteString(contextText)

	raw, err := s.gen.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: s.systemPrompt("You create study flashcards from educational video content. Answer with valid JSON only.")},
		{Role: llm.RoleUser, Content: b.String()},
	})
	if err != nil {
		return nil, err
	}

	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var payload flashcardPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("parsing flashcard response: %w", err)
	}

	cards := make([]Flashcard, 0, len(payload.Flashcards))
	for _, item := range payload.Flashcards {
		if item.Question == nil || item.Answer == nil {
			continue
		}
		card := Flashcard{
			Question:   strings.TrimSpace(*item.Question),
			Answer:     strings.TrimSpace(*item.Answer),
			Topic:      topic,
			Difficulty: normalizeDifficulty(item.Difficulty),
			Timestamp:  item.Timestamp,
		}
		if card.Question == "" || card.Answer == "" {
			continue
		}
		if len(textViolations("question", card.Question)) > 0 || len(textViolations("answer", card.Answer)) > 0 {
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

type quizChoicePayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type quizItemPayload struct {
	Type        string              `json:"type"`
	Prompt      *string             `json:"prompt"`
	Choices     []quizChoicePayload `json:"choices"`
	Answer      *string             `json:"answer"`
	Explanation string              `json:"explanation"`
	Difficulty  string              `json:"difficulty"`
	Timestamp   string              `json:"timestamp"`
}

type quizPayload struct {
	Questions []quizItemPayload `json:"questions"`
}

func (s *Service) generateQuiz(ctx context.Context, topic, contextText string, count int) ([]QuizQuestion, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d quiz questions about %q from the excerpts below.\n", count, topic)
	b.WriteString("Mix multiple_choice, short_answer and true_false questions.\n\n")
	b.WriteString("Respond with JSON only, no prose:\n")
	b.WriteString(`{"questions": [{"type": "multiple_choice", "prompt": "...", "choices": [{"id": "a", "text": "..."}], "answer": "a", "explanation": "...", "difficulty": "easy|medium|hard", "timestamp": "MM:SS"}]}`)
	b.WriteString("\nMultiple-choice questions need exactly four choices with ids a, b, c, d.")
	b.WriteString("\n\nExcerpts:\n")
	b.WriteString(contextText)

	raw, err := s.gen.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: s.systemPrompt("You create quiz questions from educational video content. Answer with valid JSON only.")},
		{Role: llm.RoleUser, Content: b.String()},
	})
	if err != nil {
		return nil, err
	}

	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var payload quizPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("parsing quiz response: %w", err)
	}

	questions := make([]QuizQuestion, 0, len(payload.Questions))
	for _, item := range payload.Questions {
		if item.Prompt == nil || item.Answer == nil {
			continue
		}
		q := QuizQuestion{
			Type:        normalizeQuestionType(item.Type),
			Prompt:      strings.TrimSpace(*item.Prompt),
			Answer:      strings.TrimSpace(*item.Answer),
			Explanation: strings.TrimSpace(item.Explanation),
			Topic:       topic,
			Difficulty:  normalizeDifficulty(item.Difficulty),
			Timestamp:   item.Timestamp,
		}
		if q.Prompt == "" || q.Answer == "" {
			continue
		}
		if len(textViolations("prompt", q.Prompt)) > 0 {
			continue
		}
		for _, c := range item.Choices {
			q.Choices = append(q.Choices, QuizChoice{ID: c.ID, Text: strings.TrimSpace(c.Text)})
		}
		if q.Type == QuestionMultipleChoice && len(q.Choices) != 4 {
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

func normalizeQuestionType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case QuestionShortAnswer:
		return QuestionShortAnswer
	case QuestionTrueFalse:
		return QuestionTrueFalse
	default:
		return QuestionMultipleChoice
	}
}
