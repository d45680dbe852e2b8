package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
)

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// SendSuccess posts the summary of a finished scan
func (s *DiscordService) SendSuccess(ctx context.Context, stats domain.Statistics) error {
	if s.webhookURL == "" {
		return nil
	}

	embed := discordEmbed{
		Title:       fmt.Sprintf("Playshelf %s scan completed", stats.Origin),
		Description: fmt.Sprintf("Group `%s` is up to date", stats.Group),
		Color:       0x00ff00,
		Timestamp:   s.now().Format(time.RFC3339),
		Fields: []discordField{
			{
				Name:   "Scanned",
				Value:  fmt.Sprintf("%d", stats.Scanned),
				Inline: true,
			},
			{
				Name:   "Changes",
				Value:  fmt.Sprintf("%d added, %d updated, %d removed", stats.Added, stats.Updated, stats.Removed),
				Inline: true,
			},
			{
				Name:   "Cover Art",
				Value:  fmt.Sprintf("%d (%.1f%%)", stats.WithCover, stats.CoverPercent),
				Inline: true,
			},
			{
				Name:   "Catalog Size",
				Value:  fmt.Sprintf("%d items", stats.TotalItems),
				Inline: false,
			},
			{
				Name:   "Duplicate IDs Dropped",
				Value:  fmt.Sprintf("%d", stats.DuplicateIDs),
				Inline: true,
			},
			{
				Name:   "Artwork Downloads Queued",
				Value:  fmt.Sprintf("%d", stats.PrefetchQueue),
				Inline: true,
			},
		},
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

// SendError posts a failed scan with the error message
func (s *DiscordService) SendError(ctx context.Context, err error) error {
	if s.webhookURL == "" {
		return nil
	}

	title := "Playshelf scan failed"
	var scanErr *domain.ScanError
	if errors.As(err, &scanErr) {
		title = fmt.Sprintf("Playshelf %s scan failed", scanErr.Origin)
	}

	embed := discordEmbed{
		Title:       title,
		Description: fmt.Sprintf("```%s```", err.Error()),
		Color:       0xff0000,
		Timestamp:   s.now().Format(time.RFC3339),
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent")
	return nil
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
