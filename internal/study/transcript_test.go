package study

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const transcriptResponse = `{
	"summary": "The recording explains how gradient descent minimizes a loss function and why the learning rate matters for convergence.",
	"quiz": [
		{"question": "What does gradient descent minimize?", "options": ["The loss function", "The dataset size", "The layer count", "The batch size"], "correctAnswer": 0, "concept": "Optimization", "timestamp": "00:40"}
	],
	"flashcards": [
		{"question": "What role does the learning rate play?", "answer": "It scales each update step.", "difficulty": "easy", "timestamp": "05:30"}
	]
}`

func transcriptSegments() []TranscriptSegment {
	return []TranscriptSegment{
		{StartSec: 0, EndSec: 30, Text: "Gradient descent minimizes the loss function."},
		{StartSec: 30, EndSec: 60, Text: "  "},
		{StartSec: 60, EndSec: 90, Text: "The learning rate scales every update."},
	}
}

func TestGenerateFromTranscript(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(transcriptResponse, nil)

	svc := NewService(nil, gen)

	materials, err := svc.GenerateFromTranscript(context.Background(), transcriptSegments(), 90, Options{})
	require.NoError(t, err)

	require.Len(t, materials.Quiz, 1)
	assert.Equal(t, "00:40", materials.Quiz[0].Timestamp)
	require.Len(t, materials.Flashcards, 1)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerateFromTranscriptClampsTimestamps(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(transcriptResponse, nil)

	svc := NewService(nil, gen)

	materials, err := svc.GenerateFromTranscript(context.Background(), transcriptSegments(), 90, Options{})
	require.NoError(t, err)

	// "05:30" lies past the 90s video and is pulled back to its end.
	assert.Equal(t, "01:30", materials.Flashcards[0].Timestamp)
}

func TestGenerateFromTranscriptRetriesOnceByDefault(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("not json", nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return(transcriptResponse, nil).Once()

	svc := NewService(nil, gen)

	_, err := svc.GenerateFromTranscript(context.Background(), transcriptSegments(), 90, Options{})
	require.NoError(t, err)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestGenerateFromTranscriptNegativeMaxRetriesDisablesRetry(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("not json", nil)

	svc := NewService(nil, gen)

	_, err := svc.GenerateFromTranscript(context.Background(), transcriptSegments(), 90, Options{MaxRetries: -1})
	require.Error(t, err)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerateFromTranscriptRejectsPlaceholderContent(t *testing.T) {
	bad := `{
		"summary": "Sample summary text for [TOPIC] covering the main ideas of the recording in detail.",
		"quiz": [{"question": "Q?", "options": ["a", "b", "c", "d"], "correctAnswer": 0, "concept": "X", "timestamp": "00:10"}],
		"flashcards": [{"question": "Q?", "answer": "A."}]
	}`

	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(bad, nil)

	svc := NewService(nil, gen)

	_, err := svc.GenerateFromTranscript(context.Background(), transcriptSegments(), 90, Options{MaxRetries: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestGenerateFromTranscriptEmptyTranscript(t *testing.T) {
	gen := new(mockGenerator)
	svc := NewService(nil, gen)

	_, err := svc.GenerateFromTranscript(context.Background(), []TranscriptSegment{{Text: "  "}}, 90, Options{})
	require.Error(t, err)
	gen.AssertNotCalled(t, "Generate")
}
