// Package dispatch delivers escalation alerts to the on-call team over the
// SMS dispatch gateway.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"buildvive_backend/internal/escalation"
	"buildvive_backend/platform/config"
	"buildvive_backend/platform/logger"
	"buildvive_backend/platform/phone"
)

// Client posts alert messages to the dispatch gateway. A nil Client is valid
// and drops alerts silently, which keeps local development working without a
// gateway.
type Client struct {
	baseURL  string
	apiKey   string
	opsPhone string
	http     *http.Client
	log      *logger.Logger
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewClient creates a dispatch client, or nil when no gateway is configured.
func NewClient(cfg config.DispatchConfig, log *logger.Logger) *Client {
	if !cfg.IsDispatchEnabled() {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetDispatchURL(), "/"),
		apiKey:   cfg.GetDispatchAPIKey(),
		opsPhone: cfg.GetOpsPhone(),
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// Notify implements escalation.Notifier by texting the on-call number.
func (c *Client) Notify(ctx context.Context, alert escalation.Alert) error {
	if c == nil {
		return nil
	}
	return c.SendMessage(ctx, c.opsPhone, formatAlert(alert))
}

// SendMessage posts one SMS through the gateway.
func (c *Client) SendMessage(ctx context.Context, phoneNumber, message string) error {
	if c == nil {
		return nil
	}

	normalized := phone.NormalizeE164(phoneNumber)

	body, err := json.Marshal(sendRequest{Phone: normalized, Message: message})
	if err != nil {
		return fmt.Errorf("marshal dispatch payload: %w", err)
	}

	url := c.baseURL + "/send/message"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("dispatch gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("dispatch alert sent", "phone", normalized)
	return nil
}

func formatAlert(alert escalation.Alert) string {
	var b strings.Builder
	b.WriteString("Chat escalation, session " + alert.SessionID)
	if alert.Reason != "" {
		b.WriteString(". Reason: " + alert.Reason)
	}
	if alert.ParticipantName != "" {
		b.WriteString(". Visitor: " + alert.ParticipantName)
	}
	if alert.ParticipantPhone != "" {
		b.WriteString(" (" + alert.ParticipantPhone + ")")
	}
	return b.String()
}
