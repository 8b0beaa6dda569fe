package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIChatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompleter implements Completer with the chat completions API.
type OpenAICompleter struct {
	api   openAIChatAPI
	model string
}

// NewOpenAICompleter creates a completer from an API key.
func NewOpenAICompleter(apiKey, model string) (*OpenAICompleter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("chat: openai api key is required")
	}
	return newOpenAICompleterWithAPI(openai.NewClient(apiKey), model), nil
}

func newOpenAICompleterWithAPI(api openAIChatAPI, model string) *OpenAICompleter {
	if strings.TrimSpace(model) == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICompleter{api: api, model: model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.System)+len(req.History)+1)
	for _, s := range req.System {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s})
	}
	for _, t := range req.Messages() {
		role := openai.ChatMessageRoleUser
		switch t.Role {
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: int(req.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat: openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
