package chat

import (
	"context"

	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// FallbackCompleter tries primary then fallback. It is an AI-to-AI chain;
// the keyword selector sits behind both in the Responder.
type FallbackCompleter struct {
	primary  Completer
	fallback Completer
	logger   *logging.Logger
}

// NewFallbackCompleter chains two completers. A nil fallback yields primary-only behaviour.
func NewFallbackCompleter(primary, fallback Completer, logger *logging.Logger) *FallbackCompleter {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackCompleter{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	text, err := c.primary.Complete(ctx, req)
	if err == nil {
		return text, nil
	}

	c.logger.Warn("primary completer failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)
	if c.fallback == nil {
		return "", err
	}

	text, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback completer also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return "", fallbackErr
	}
	return text, nil
}
