// internal/infra/whatsapp/client.go
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "escala_notifier/internal/domain/whatsapp"

	"golang.org/x/time/rate"
)

const maxResponseBody = 64 << 10

// WebhookClient posts templated messages to the WhatsApp gateway webhook.
type WebhookClient struct {
	url        string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewWebhookClient(url, token string, timeout time.Duration, ratePerSecond float64) *WebhookClient {
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &WebhookClient{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Send delivers msg. Any non-2xx status is an error; the result still carries status and body.
func (c *WebhookClient) Send(ctx context.Context, msg domain.Message) (domain.SendResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.SendResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	result := domain.SendResult{StatusCode: resp.StatusCode, Body: string(body)}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("webhook answered %d", resp.StatusCode)
	}
	return result, nil
}
