package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/contractor-leads/internal/chat"
	appconfig "github.com/wolfman30/contractor-leads/internal/config"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// AWSConfigLoader resolves SDK config for the Bedrock completer.
type AWSConfigLoader func(ctx context.Context, cfg *appconfig.Config) (aws.Config, error)

// BuildCompleter wires the AI completer named by AI_PROVIDER. When a
// provider SDK is selected and AI_CHAT_URL is also set, the HTTP service
// becomes its fallback. A nil completer means keyword replies only. The
// returned close func is never nil.
func BuildCompleter(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (chat.Completer, func() error, error) {
	noop := func() error { return nil }
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var httpCompleter chat.Completer
	if c := chat.NewHTTPCompleter(cfg.AIChatURL, cfg.AITimeout); c != nil {
		httpCompleter = c
	}

	var (
		primary chat.Completer
		closeFn = noop
	)
	switch provider := strings.ToLower(strings.TrimSpace(cfg.AIProvider)); provider {
	case "", "none":
		logger.Info("ai completion disabled; using keyword replies")
		return nil, noop, nil
	case "http":
		if httpCompleter == nil {
			return nil, noop, fmt.Errorf("bootstrap: AI_CHAT_URL is required for provider http")
		}
		logger.Info("ai completion enabled", "provider", provider)
		return httpCompleter, noop, nil
	case "gemini":
		gemini, err := chat.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: %w", err)
		}
		primary, closeFn = gemini, gemini.Close
	case "openai":
		openai, err := chat.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: %w", err)
		}
		primary = openai
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, noop, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for provider bedrock")
		}
		if loadAWS == nil {
			return nil, noop, fmt.Errorf("bootstrap: aws config loader is required for provider bedrock")
		}
		awsCfg, err := loadAWS(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		primary = chat.NewBedrockCompleter(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown AI_PROVIDER %q", cfg.AIProvider)
	}

	logger.Info("ai completion enabled",
		"provider", cfg.AIProvider,
		"http_fallback", httpCompleter != nil,
	)
	if httpCompleter == nil {
		return primary, closeFn, nil
	}
	return chat.NewFallbackCompleter(primary, httpCompleter, logger), closeFn, nil
}
