package study

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const unifiedResponse = `{
	"summary": "The lecture covers gradient descent and backpropagation, from the update rule to a worked example on a small network.",
	"topics": ["Gradient Descent", "Backpropagation"],
	"flashcards": [
		{"topic": "Gradient Descent", "question": "What does the learning rate control?", "answer": "The size of each weight update.", "difficulty": "easy", "timestamp": "01:30"},
		{"topic": "Backpropagation", "question": "Which rule composes gradients?", "answer": "The chain rule.", "difficulty": "medium", "timestamp": "02:10"}
	],
	"quiz": [
		{"topic": "Gradient Descent", "question": "What happens with a huge learning rate?", "options": ["Divergence", "Faster convergence", "Nothing", "Lower loss"], "correctAnswer": 0, "concept": "Learning Rate", "timestamp": "01:45"},
		{"topic": "Backpropagation", "question": "Backpropagation traverses the network in which direction?", "options": ["Output to input", "Input to output", "Randomly", "Layer-parallel"], "correctAnswer": 0, "concept": "Backward Pass", "timestamp": "02:20"}
	]
}`

const unifiedContext = "- [01:30–01:50] The learning rate controls the update size.\n- [02:10–02:30] Backpropagation uses the chain rule."

func TestGenerateAllMaterials(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(unifiedResponse, nil)

	svc := NewService(nil, gen)

	materials, err := svc.GenerateAllMaterials(context.Background(), unifiedContext, Options{TopicsCount: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"Gradient Descent", "Backpropagation"}, materials.Topics)
	assert.Len(t, materials.FlashcardsByTopic["Gradient Descent"], 1)
	assert.Len(t, materials.QuizByTopic["Backpropagation"], 1)
	assert.Equal(t, 0, materials.QuizByTopic["Gradient Descent"][0].CorrectAnswer)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerateAllMaterialsNoRetryByDefault(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("not json at all", nil)

	svc := NewService(nil, gen)

	_, err := svc.GenerateAllMaterials(context.Background(), unifiedContext, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadResponse)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerateAllMaterialsRetriesWhenAsked(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("garbage", nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return(unifiedResponse, nil).Once()

	svc := NewService(nil, gen)

	materials, err := svc.GenerateAllMaterials(context.Background(), unifiedContext, Options{MaxRetries: 1})
	require.NoError(t, err)
	assert.Len(t, materials.Topics, 2)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestGenerateAllMaterialsUpstreamErrorIsNotRetried(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	svc := NewService(nil, gen)

	_, err := svc.GenerateAllMaterials(context.Background(), unifiedContext, Options{MaxRetries: 3})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errBadResponse)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerateAllMaterialsRejectsInvalidContent(t *testing.T) {
	bad := `{
		"summary": "The lecture covers gradient descent and backpropagation, from the update rule to a worked example on a small network.",
		"topics": ["Gradient Descent"],
		"flashcards": [{"topic": "Gradient Descent", "question": "Q?", "answer": "A."}],
		"quiz": [{"topic": "Gradient Descent", "question": "Pick", "options": ["a", "b", "c"], "correctAnswer": 0, "concept": "X", "timestamp": "01:00"}]
	}`

	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(bad, nil)

	svc := NewService(nil, gen)

	_, err := svc.GenerateAllMaterials(context.Background(), unifiedContext, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadResponse)
	assert.Contains(t, err.Error(), "exactly 4 options")
}

func TestGenerateAllMaterialsReassignsUnknownTopic(t *testing.T) {
	stray := `{
		"summary": "The lecture covers gradient descent and backpropagation, from the update rule to a worked example on a small network.",
		"topics": ["Gradient Descent"],
		"flashcards": [{"topic": "Something Else", "question": "What does the learning rate control?", "answer": "The size of each weight update."}],
		"quiz": [{"topic": "Gradient Descent", "question": "What happens with a huge learning rate?", "options": ["Divergence", "Faster convergence", "Nothing", "Lower loss"], "correctAnswer": 0, "concept": "Learning Rate", "timestamp": "01:45"}]
	}`

	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(stray, nil)

	svc := NewService(nil, gen)

	materials, err := svc.GenerateAllMaterials(context.Background(), unifiedContext, Options{})
	require.NoError(t, err)
	require.Len(t, materials.FlashcardsByTopic["Gradient Descent"], 1)
	assert.Equal(t, "Gradient Descent", materials.FlashcardsByTopic["Gradient Descent"][0].Topic)
}

func TestGenerateAllMaterialsEmptyContext(t *testing.T) {
	gen := new(mockGenerator)
	svc := NewService(nil, gen)

	_, err := svc.GenerateAllMaterials(context.Background(), "   ", Options{})
	require.Error(t, err)
	gen.AssertNotCalled(t, "Generate")
}
