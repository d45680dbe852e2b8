package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
)

// Service fans scan results out to every configured channel. The summary is
// always logged; the webhook is optional.
type Service struct {
	log     zerolog.Logger
	discord *DiscordService
}

func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	s := &Service{
		log: log.With().Str("module", "notification").Logger(),
	}
	if webhookURL != "" {
		s.discord = NewDiscordService(log, webhookURL)
	}
	return s
}

func (s *Service) SendSuccess(ctx context.Context, stats domain.Statistics) error {
	s.log.Info().
		Str("origin", string(stats.Origin)).
		Int("scanned", stats.Scanned).
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("removed", stats.Removed).
		Int("total", stats.TotalItems).
		Float64("cover_percent", stats.CoverPercent).
		Int("prefetch_queue", stats.PrefetchQueue).
		Msg("Scan summary")

	if s.discord == nil {
		return nil
	}
	return s.discord.SendSuccess(ctx, stats)
}

func (s *Service) SendError(ctx context.Context, err error) error {
	s.log.Error().Err(err).Msg("Scan failed")

	if s.discord == nil {
		return nil
	}
	return s.discord.SendError(ctx, err)
}
