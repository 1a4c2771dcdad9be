package ai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Chat roles accepted by the completion provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn handed to the completion provider.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionRequest describes a single provider call.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
}

// CompletionClient abstracts the completion provider so orchestration can be
// tested without network access.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type openAIClient struct {
	client *openai.Client
}

// NewOpenAIClient wraps the OpenAI SDK behind CompletionClient.
func NewOpenAIClient(apiKey string) CompletionClient {
	return &openAIClient{client: openai.NewClient(apiKey)}
}

func (c *openAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
