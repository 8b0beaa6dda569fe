package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/contractor-leads/pkg/logging"
)

const defaultWebhookTimeout = 10 * time.Second

// Webhook receives a best-effort copy of every submitted lead.
type Webhook interface {
	Deliver(ctx context.Context, lead *Lead) error
}

// WebhookClient POSTs the lead payload as JSON to a fixed URL.
type WebhookClient struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewWebhookClient returns nil when url is empty, which disables the secondary write.
func NewWebhookClient(url string, timeout time.Duration, logger *logging.Logger) *WebhookClient {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Deliver sends the lead. The response body is ignored; only transport
// errors and non-2xx statuses are reported.
func (c *WebhookClient) Deliver(ctx context.Context, lead *Lead) error {
	if c == nil {
		return nil
	}
	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("leads: marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("leads: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("leads: webhook post failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("leads: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
