package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notifyhub/receiver/internal/domain"
)

const (
	userAgent = "notifyhub-receiver"
	// Bytes of a callback response read before the connection is released.
	maxDrain = 64 << 10
)

// CallbackProvider POSTs the notification JSON to a subscriber's callback URL.
type CallbackProvider struct {
	httpClient *http.Client
}

// NewCallbackProvider returns a provider whose client gives up after timeout.
// Callers usually also bound ctx with the same timeout.
func NewCallbackProvider(timeout time.Duration) *CallbackProvider {
	return &CallbackProvider{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Deliver makes a single attempt. Every non-2xx status is a failure.
func (p *CallbackProvider) Deliver(ctx context.Context, callbackURL string, n *domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Notification-ID", n.ID)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected callback status: %d", resp.StatusCode)
	}
	return nil
}

// compile-time check that CallbackProvider implements Provider
var _ Provider = (*CallbackProvider)(nil)
