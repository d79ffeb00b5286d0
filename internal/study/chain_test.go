package study

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clipscholar/video-study-generator/internal/search"
)

func TestChainToleratesPerTopicFailure(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return(lectureSummary, nil)
	gen.On("Generate", mock.Anything, messagesContain("flashcards about")).Return(flashcardResponse, nil)
	gen.On("Generate", mock.Anything, messagesContain("quiz questions about")).Return("", errors.New("quota exceeded"))

	svc := newTestService(gen)

	materials, err := svc.GenerateAll(context.Background(), "v1", "t1", Options{TopicsCount: 2})
	require.NoError(t, err)

	for _, topic := range materials.Topics {
		assert.NotEmpty(t, materials.FlashcardsByTopic[topic])
		assert.Empty(t, materials.QuizByTopic[topic], "failed topic keeps an empty slice")
		_, present := materials.QuizByTopic[topic]
		assert.True(t, present)
	}
}

func TestChainUsesDefaultTopicWhenExtractionFindsNothing(t *testing.T) {
	flatSummary := "a lecture about things and more things, explained plainly with no notable structure or emphasis at all."

	gen := new(mockGenerator)
	gen.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return(flatSummary, nil)
	gen.On("Generate", mock.Anything, messagesContain("flashcards about")).Return(flashcardResponse, nil)
	gen.On("Generate", mock.Anything, messagesContain("quiz questions about")).Return(quizResponse, nil)

	svc := newTestService(gen)

	materials, err := svc.GenerateAll(context.Background(), "v1", "t1", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{defaultTopic}, materials.Topics)
	assert.NotEmpty(t, materials.FlashcardsByTopic[defaultTopic])
}

func TestChainFiltersPlaceholderItems(t *testing.T) {
	tainted := `{"flashcards": [
		{"question": "What does the learning rate control?", "answer": "The size of each weight update.", "difficulty": "easy", "timestamp": "01:30"},
		{"question": "Sample question about [TOPIC]", "answer": "Sample answer", "difficulty": "easy", "timestamp": "01:35"},
		{"question": "Missing answer"}
	]}`

	gen := new(mockGenerator)
	gen.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return(lectureSummary, nil)
	gen.On("Generate", mock.Anything, messagesContain("flashcards about")).Return(tainted, nil)
	gen.On("Generate", mock.Anything, messagesContain("quiz questions about")).Return(quizResponse, nil)

	svc := newTestService(gen)

	materials, err := svc.GenerateAll(context.Background(), "v1", "t1", Options{TopicsCount: 2})
	require.NoError(t, err)

	for _, topic := range materials.Topics {
		require.Len(t, materials.FlashcardsByTopic[topic], 1)
		assert.Equal(t, "What does the learning rate control?", materials.FlashcardsByTopic[topic][0].Question)
	}
}

func TestChainDropsMultipleChoiceWithoutFourChoices(t *testing.T) {
	twoChoices := `{"questions": [
		{"type": "multiple_choice", "prompt": "Pick one", "choices": [{"id": "a", "text": "Yes"}, {"id": "b", "text": "No"}], "answer": "a"},
		{"type": "true_false", "prompt": "The chain rule composes derivatives.", "answer": "true"}
	]}`

	gen := new(mockGenerator)
	gen.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return(lectureSummary, nil)
	gen.On("Generate", mock.Anything, messagesContain("flashcards about")).Return(flashcardResponse, nil)
	gen.On("Generate", mock.Anything, messagesContain("quiz questions about")).Return(twoChoices, nil)

	svc := newTestService(gen)

	materials, err := svc.GenerateAll(context.Background(), "v1", "t1", Options{TopicsCount: 2})
	require.NoError(t, err)

	for _, topic := range materials.Topics {
		require.Len(t, materials.QuizByTopic[topic], 1)
		assert.Equal(t, QuestionTrueFalse, materials.QuizByTopic[topic][0].Type)
	}
}

func TestChainFailsWhenSummarizationFails(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("model offline"))

	svc := newTestService(gen)

	_, err := svc.GenerateAll(context.Background(), "v1", "t1", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generating summary")
}

func TestChainFailsWithoutHits(t *testing.T) {
	gen := new(mockGenerator)
	svc := NewService(search.NewFuser(&stubSearcher{}), gen)

	_, err := svc.GenerateAll(context.Background(), "v1", "t1", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable segments")
	gen.AssertNotCalled(t, "Summarize")
}
