package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Message is a single chat message sent to the generative capability.
//
// Role: "system", "user", or "assistant"
// Content: Text content of the message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generator is the generative text capability consumed by the study pipeline.
// Generate returns raw model text, which may wrap JSON in markdown fences;
// Summarize is a convenience for single-instruction summarization.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
	Summarize(ctx context.Context, contextText, instruction string) (string, error)
}

// Client implements Generator on top of an OpenAI-compatible chat API.
// Thread-safe for concurrent use.
type Client struct {
	config *Config
	api    *openai.Client
}

// NewClient creates a new generative text client with the given configuration.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	apiCfg := openai.DefaultConfig(config.APIKey)
	if config.APIURL != "" {
		apiCfg.BaseURL = config.APIURL
	}
	apiCfg.HTTPClient = &http.Client{
		Timeout: time.Duration(config.Timeout) * time.Second,
	}

	return &Client{
		config: config,
		api:    openai.NewClientWithConfig(apiCfg),
	}, nil
}

// Generate sends the conversation and returns the first choice's raw text.
// Upstream errors (auth, quota, malformed response) propagate with the
// provider's original message.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    chatMessages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: float32(c.config.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}

// Summarize runs a single-instruction summarization over the given context.
func (c *Client) Summarize(ctx context.Context, contextText, instruction string) (string, error) {
	return c.Generate(ctx, []Message{
		{Role: RoleSystem, Content: instruction},
		{Role: RoleUser, Content: contextText},
	})
}
