package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// WebhookSink posts alerts to a generic HTTP endpoint. When secret is set
// the body is signed with HMAC-SHA256 in X-Signature-256.
type WebhookSink struct {
	url    string
	secret string
	client *http.Client
	now    func() time.Time
}

func NewWebhookSink(url, secret string) (*WebhookSink, error) {
	if url == "" {
		return nil, errors.New("webhook url is required")
	}
	return &WebhookSink{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}, nil
}

func (w *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

func (w *WebhookSink) Send(ctx context.Context, message string) error {
	payload := webhookPayload{
		Event:     "flight_alert",
		Timestamp: w.now().UTC().Format(time.RFC3339),
		Message:   message,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Sink: w.Name(), Err: fmt.Errorf("marshal webhook payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Sink: w.Name(), Err: fmt.Errorf("create webhook request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "flightwatch/1.0")

	if w.secret != "" {
		req.Header.Set("X-Signature-256", "sha256="+computeHMAC(body, []byte(w.secret)))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return &DeliveryError{Sink: w.Name(), Err: fmt.Errorf("send webhook alert: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{Sink: w.Name(), Err: fmt.Errorf("webhook returned status %d", resp.StatusCode)}
	}
	return nil
}

func computeHMAC(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
