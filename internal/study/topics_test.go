package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTopicsFromBoldMarkup(t *testing.T) {
	summary := "The lecture covers **Gradient Descent** and later **Backpropagation** in depth. " +
		"It also revisits **Gradient Descent** with momentum."

	topics := ExtractTopics(summary, 4)
	assert.Equal(t, []string{"Gradient Descent", "Backpropagation"}, topics)
}

func TestExtractTopicsFromKeyConceptsSection(t *testing.T) {
	summary := `The lecture introduces optimization for neural networks.

Key concepts:
- Learning Rate: controls the step size
- Loss Surface - the landscape being descended
- momentum and its variants
`

	topics := ExtractTopics(summary, 4)
	assert.Equal(t, []string{"Learning Rate", "Loss Surface"}, topics)
}

func TestExtractTopicsFallsBackToCapitalizedPhrases(t *testing.T) {
	summary := "This talk compares Stochastic Gradient Descent with Batch Normalization " +
		"and shows how both interact during training."

	topics := ExtractTopics(summary, 4)
	assert.Equal(t, []string{"Stochastic Gradient Descent", "Batch Normalization"}, topics)
}

func TestExtractTopicsTiersCombine(t *testing.T) {
	summary := `An overview of **Neural Networks**.

Key concepts:
- Activation Functions: non-linearities between layers

The section on Convolution Layers closes the talk.`

	topics := ExtractTopics(summary, 4)
	assert.Equal(t, []string{"Neural Networks", "Activation Functions", "Convolution Layers"}, topics)
}

func TestExtractTopicsRespectsLimit(t *testing.T) {
	summary := "**One** **Two** **Three** **Four** **Five**"

	topics := ExtractTopics(summary, 3)
	assert.Equal(t, []string{"One", "Two", "Three"}, topics)
}

func TestExtractTopicsIsIdempotent(t *testing.T) {
	summary := "Covers **Dynamic Programming** and Graph Traversal in one session."

	first := ExtractTopics(summary, 4)
	second := ExtractTopics(summary, 4)
	assert.Equal(t, first, second)
}

func TestExtractTopicsStripsTrailingParenthetical(t *testing.T) {
	summary := "Introduces **Fourier Transform (FT)** early on."

	topics := ExtractTopics(summary, 4)
	assert.Equal(t, []string{"Fourier Transform"}, topics)
}

func TestExtractTopicsEmptyInputs(t *testing.T) {
	assert.Empty(t, ExtractTopics("", 4))
	assert.Empty(t, ExtractTopics("nothing to find here", 4))
	assert.Nil(t, ExtractTopics("**Topic**", 0))
}
