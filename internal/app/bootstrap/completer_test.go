package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/wolfman30/contractor-leads/internal/chat"
	appconfig "github.com/wolfman30/contractor-leads/internal/config"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

func staticAWS(context.Context, *appconfig.Config) (aws.Config, error) {
	return aws.Config{Region: "us-east-1"}, nil
}

func TestBuildCompleterRequiresConfig(t *testing.T) {
	if _, _, err := BuildCompleter(context.Background(), nil, staticAWS, logging.New("error")); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildCompleterNoneReturnsNil(t *testing.T) {
	for _, provider := range []string{"", "none", " NONE "} {
		completer, closeFn, err := BuildCompleter(context.Background(), &appconfig.Config{AIProvider: provider}, staticAWS, logging.New("error"))
		if err != nil {
			t.Fatalf("provider %q: unexpected error: %v", provider, err)
		}
		if completer != nil {
			t.Fatalf("provider %q: expected nil completer, got %T", provider, completer)
		}
		if closeFn == nil || closeFn() != nil {
			t.Fatalf("provider %q: expected no-op close", provider)
		}
	}
}

func TestBuildCompleterHTTP(t *testing.T) {
	cfg := &appconfig.Config{AIProvider: "http", AIChatURL: "http://localhost:9999/chat"}
	completer, _, err := BuildCompleter(context.Background(), cfg, staticAWS, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := completer.(*chat.HTTPCompleter); !ok {
		t.Fatalf("expected http completer, got %T", completer)
	}

	cfg.AIChatURL = ""
	if _, _, err := BuildCompleter(context.Background(), cfg, staticAWS, logging.New("error")); err == nil {
		t.Fatalf("expected error without AI_CHAT_URL")
	}
}

func TestBuildCompleterOpenAIWithHTTPFallback(t *testing.T) {
	cfg := &appconfig.Config{AIProvider: "openai", OpenAIAPIKey: "sk-test", AIChatURL: "http://localhost:9999/chat"}
	completer, _, err := BuildCompleter(context.Background(), cfg, staticAWS, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := completer.(*chat.FallbackCompleter); !ok {
		t.Fatalf("expected fallback chain, got %T", completer)
	}

	cfg.AIChatURL = ""
	completer, _, err = BuildCompleter(context.Background(), cfg, staticAWS, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := completer.(*chat.OpenAICompleter); !ok {
		t.Fatalf("expected bare openai completer, got %T", completer)
	}
}

func TestBuildCompleterMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  *appconfig.Config
		want string
	}{
		{name: "openai", cfg: &appconfig.Config{AIProvider: "openai"}, want: "openai api key"},
		{name: "gemini", cfg: &appconfig.Config{AIProvider: "gemini"}, want: "gemini api key"},
		{name: "bedrock", cfg: &appconfig.Config{AIProvider: "bedrock"}, want: "BEDROCK_MODEL_ID"},
		{name: "unknown", cfg: &appconfig.Config{AIProvider: "llama"}, want: "unknown AI_PROVIDER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildCompleter(context.Background(), tt.cfg, staticAWS, logging.New("error"))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildCompleterBedrock(t *testing.T) {
	cfg := &appconfig.Config{AIProvider: "bedrock", BedrockModelID: "amazon.nova-lite-v1:0"}
	completer, _, err := BuildCompleter(context.Background(), cfg, staticAWS, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := completer.(*chat.BedrockCompleter); !ok {
		t.Fatalf("expected bedrock completer, got %T", completer)
	}

	failing := func(context.Context, *appconfig.Config) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}
	if _, _, err := BuildCompleter(context.Background(), cfg, failing, logging.New("error")); err == nil {
		t.Fatalf("expected aws loader error to surface")
	}
}
