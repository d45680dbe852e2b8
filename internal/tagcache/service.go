// Package tagcache looks up descriptive store tags for remote catalog ids and
// keeps them on disk so each id is fetched at most once.
package tagcache

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
)

type Service interface {
	domain.TagSource
	Persist(ctx context.Context) error
}

type service struct {
	log     zerolog.Logger
	cache   domain.TagCache
	fetcher Fetcher
}

func NewService(log zerolog.Logger, cache domain.TagCache, fetcher Fetcher) Service {
	return &service{
		log:     log.With().Str("module", "tagcache").Logger(),
		cache:   cache,
		fetcher: fetcher,
	}
}

// Tags returns the cached tags for id, fetching them on a miss. A failed or
// empty fetch yields no tags and is not cached, so a later scan retries.
func (s *service) Tags(ctx context.Context, id string) []string {
	if tags, ok := s.cache.Get(ctx, id); ok {
		return tags
	}
	if s.fetcher == nil {
		return nil
	}

	tags, err := s.fetcher.Fetch(ctx, id)
	if err != nil {
		s.log.Debug().Err(err).Str("id", id).Msg("tag lookup failed")
		return nil
	}
	if len(tags) == 0 {
		return nil
	}

	s.cache.Put(ctx, id, tags)
	return tags
}

func (s *service) Persist(ctx context.Context) error {
	return s.cache.Persist(ctx)
}
