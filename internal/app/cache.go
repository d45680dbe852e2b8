package app

import (
	"context"

	"github.com/varoOP/playshelf/internal/proxycache"
)

func (a *App) CacheStats() (proxycache.Stats, error) {
	return a.cache.Stats()
}

// PruneCache trims the proxy cache down to cache_max_mb.
func (a *App) PruneCache(ctx context.Context) (int, error) {
	return a.cache.Prune(ctx, "")
}

func (a *App) ClearCache() (int, error) {
	return a.cache.Clear()
}
