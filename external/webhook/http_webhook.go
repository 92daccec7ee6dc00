package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/webhook"
)

const (
	webhookTimeout   = 10 * time.Second
	userAgent        = "meeting-minutes-webhook/" + webhook.MinutesWebhookSchemaVersion
	errorBodyPreview = 512
)

type HTTPSender struct {
	webhookURL string
	client     *http.Client
}

func NewHTTPSender(webhookURL string) *HTTPSender {
	return &HTTPSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
	}
}

// SendMinutes posts the payload as JSON. An empty URL disables delivery.
func (s *HTTPSender) SendMinutes(ctx context.Context, payload webhook.MinutesWebhookPayload) error {
	if s.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Minutes-Schema-Version", payload.SchemaVersion)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post minutes for session %s: %w", payload.SessionID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, readPreview(resp.Body))
	}
	return nil
}

func readPreview(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, errorBodyPreview))
	return strings.TrimSpace(string(b))
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
