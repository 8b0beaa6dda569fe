package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultCompletionTimeout = 15 * time.Second

// HTTPCompleter calls a request/response chat endpoint.
type HTTPCompleter struct {
	url        string
	httpClient *http.Client
}

type httpCompletionRequest struct {
	Message             string `json:"message"`
	ConversationHistory []Turn `json:"conversationHistory"`
}

type httpCompletionResponse struct {
	Response *string `json:"response"`
}

// NewHTTPCompleter returns nil when url is empty.
func NewHTTPCompleter(url string, timeout time.Duration) *HTTPCompleter {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultCompletionTimeout
	}
	return &HTTPCompleter{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete posts {message, conversationHistory} and expects {response}.
// Any other status or shape is an error.
func (c *HTTPCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	history := req.History
	if history == nil {
		history = []Turn{}
	}
	body, err := json.Marshal(httpCompletionRequest{Message: req.Message, ConversationHistory: history})
	if err != nil {
		return "", fmt.Errorf("chat: marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("chat: build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat: completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat: completion service returned status %d", resp.StatusCode)
	}

	var out httpCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("chat: decode completion response: %w", err)
	}
	if out.Response == nil {
		return "", errors.New("chat: completion response missing response field")
	}
	return *out.Response, nil
}
