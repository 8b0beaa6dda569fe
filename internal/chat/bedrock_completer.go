package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type BedrockCompleter struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockCompleter(api bedrockConverseAPI, modelID string) *BedrockCompleter {
	if api == nil {
		panic("chat: bedrock converse client cannot be nil")
	}
	return &BedrockCompleter{api: api, modelID: modelID}
}

func (c *BedrockCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if strings.TrimSpace(c.modelID) == "" {
		return "", errors.New("chat: bedrock model id is required")
	}

	systemBlocks := make([]brtypes.SystemContentBlock, 0, len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	messages := make([]brtypes.Message, 0, len(req.History)+1)
	for _, t := range req.Messages() {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		var role brtypes.ConversationRole
		switch t.Role {
		case RoleSystem:
			systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: content})
			continue
		case RoleUser:
			role = brtypes.ConversationRoleUser
		case RoleAssistant:
			role = brtypes.ConversationRoleAssistant
		default:
			return "", fmt.Errorf("chat: unsupported role %q", t.Role)
		}
		// Converse rejects an assistant turn first, and the greeting is one.
		if len(messages) == 0 && role == brtypes.ConversationRoleAssistant {
			continue
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
		})
	}

	var inference *brtypes.InferenceConfiguration
	if req.MaxTokens > 0 {
		inference = &brtypes.InferenceConfiguration{MaxTokens: aws.Int32(req.MaxTokens)}
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(c.modelID),
		System:          systemBlocks,
		Messages:        messages,
		InferenceConfig: inference,
	})
	if err != nil {
		return "", fmt.Errorf("chat: bedrock converse failed: %w", err)
	}
	text, err := bedrockExtractOutputText(out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func bedrockExtractOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("chat: bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("chat: bedrock response did not include a message output")
	}

	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	if strings.TrimSpace(builder.String()) == "" {
		return "", errors.New("chat: bedrock response contained no text content blocks")
	}
	return builder.String(), nil
}
