package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hostsync/internal/config"
	"hostsync/internal/updater"
)

const (
	notificationUsername = "hostsync"
	colorSuccess         = 0x2ECC71
	colorWarning         = 0xE67E22
	colorFailure         = 0xE74C3C
)

// NotificationHelper decides which cycle outcomes warrant an operator alert
// and formats them into Discord payloads.
type NotificationHelper struct {
	discordNotifier *DiscordNotifier
	cfg             config.NotificationConfig
	logger          zerolog.Logger
}

// NewNotificationHelper creates a new NotificationHelper.
func NewNotificationHelper(dn *DiscordNotifier, cfg config.NotificationConfig, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		discordNotifier: dn,
		cfg:             cfg,
		logger:          logger.With().Str("component", "NotificationHelper").Logger(),
	}
}

// NotifyOutcome sends a notification for the given cycle outcome if the
// configuration asks for it. Send failures are logged, never propagated:
// a broken webhook must not affect the update loop.
func (nh *NotificationHelper) NotifyOutcome(ctx context.Context, outcome updater.Outcome) {
	if nh == nil || nh.discordNotifier == nil || nh.cfg.DiscordWebhookURL == "" {
		return
	}

	notify := false
	switch outcome.Status {
	case updater.StatusUpdated:
		notify = nh.cfg.NotifyOnSuccess
	case updater.StatusSkippedMalformed, updater.StatusSkippedAllFailed, updater.StatusFailed:
		notify = nh.cfg.NotifyOnFailure
	}
	if !notify {
		return
	}

	payload := formatOutcomeMessage(outcome)

	// Detach from the cycle context so a shutdown right after a cycle does
	// not cut off the final notification.
	sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := nh.discordNotifier.SendNotification(sendCtx, nh.cfg.DiscordWebhookURL, payload); err != nil {
		nh.logger.Error().Err(err).Str("status", string(outcome.Status)).Msg("Failed to send outcome notification")
		return
	}
	nh.logger.Info().Str("status", string(outcome.Status)).Msg("Outcome notification sent")
}

func formatOutcomeMessage(outcome updater.Outcome) DiscordMessagePayload {
	var title string
	var color int
	switch outcome.Status {
	case updater.StatusUpdated:
		title = "✅ Hosts file updated"
		color = colorSuccess
	case updater.StatusSkippedAllFailed:
		title = "⚠️ Update skipped: all sources failed"
		color = colorWarning
	case updater.StatusSkippedMalformed:
		title = "⚠️ Update skipped: managed region malformed"
		color = colorWarning
	default:
		title = "❌ Hosts file update failed"
		color = colorFailure
	}

	fields := []DiscordEmbedField{
		{Name: "Sources OK", Value: fmt.Sprintf("%d", outcome.SourcesOK), Inline: true},
		{Name: "Sources Failed", Value: fmt.Sprintf("%d", outcome.SourcesFailed), Inline: true},
		{Name: "Duration", Value: outcome.FinishedAt.Sub(outcome.StartedAt).Round(time.Millisecond).String(), Inline: true},
	}
	if outcome.Status == updater.StatusUpdated {
		fields = append(fields, DiscordEmbedField{
			Name:   "Bytes Written",
			Value:  fmt.Sprintf("%d", outcome.BytesWritten),
			Inline: true,
		})
	}
	if len(outcome.FailedSources) > 0 {
		fields = append(fields, DiscordEmbedField{
			Name:  "Failed Sources",
			Value: strings.Join(outcome.FailedSources, "\n"),
		})
	}

	var description string
	if outcome.Err != nil {
		description = outcome.Err.Error()
	}

	return DiscordMessagePayload{
		Username: notificationUsername,
		Embeds: []DiscordEmbed{
			{
				Title:       title,
				Description: description,
				Color:       color,
				Timestamp:   outcome.FinishedAt.UTC().Format(time.RFC3339),
				Fields:      fields,
			},
		},
	}
}
