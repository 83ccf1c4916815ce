package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DiscordMessagePayload is the top-level webhook request body.
type DiscordMessagePayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents a Discord embed object.
type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
}

// DiscordEmbedField represents a field in an embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordNotifier sends notification payloads to a Discord webhook.
type DiscordNotifier struct {
	logger     zerolog.Logger
	httpClient *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(logger zerolog.Logger, httpClient *http.Client) *DiscordNotifier {
	moduleLogger := logger.With().Str("component", "DiscordNotifier").Logger()

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	return &DiscordNotifier{
		logger:     moduleLogger,
		httpClient: httpClient,
	}
}

// SendNotification posts the payload to the given webhook URL. An empty URL
// is a silent no-op so callers do not need to gate on configuration.
func (dn *DiscordNotifier) SendNotification(ctx context.Context, webhookURL string, payload DiscordMessagePayload) error {
	if webhookURL == "" {
		dn.logger.Debug().Msg("Webhook URL is empty, skipping Discord notification")
		return nil
	}

	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return fmt.Errorf("invalid discord webhook URL: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dn.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	dn.logger.Debug().Int("status_code", resp.StatusCode).Msg("Discord notification sent")
	return nil
}
