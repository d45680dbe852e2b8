package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/varoOP/playshelf/internal/catalog"
	"github.com/varoOP/playshelf/internal/database"
	"github.com/varoOP/playshelf/internal/domain"
)

func (a *App) Groups(ctx context.Context) ([]domain.Group, error) {
	return a.catalogRepo.Load(ctx)
}

// ReplaceAll stores groups as the complete catalog.
func (a *App) ReplaceAll(ctx context.Context, groups []domain.Group) error {
	return a.catalogRepo.ReplaceAll(ctx, groups)
}

func (a *App) Items(ctx context.Context) ([]domain.Item, error) {
	return a.catalogService.Items(ctx)
}

func (a *App) Item(ctx context.Context, id string) (domain.Item, error) {
	return a.catalogService.Find(ctx, id)
}

func (a *App) Search(ctx context.Context, query string) ([]catalog.Match, error) {
	items, err := a.catalogService.Items(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Search(items, query), nil
}

func (a *App) AddManualItem(ctx context.Context, groupID string, item domain.Item) (domain.Item, error) {
	return a.catalogService.AddManual(ctx, groupID, item)
}

// MarkPlayed sets the last-played time of id to at, or now when at is zero.
func (a *App) MarkPlayed(ctx context.Context, id string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	return a.catalogRepo.UpdateLastPlayed(ctx, id, at)
}

// DeleteItem removes id from the catalog and drops its asset directory.
func (a *App) DeleteItem(ctx context.Context, id string) error {
	if err := a.catalogRepo.DeleteItem(ctx, id); err != nil {
		return err
	}
	if err := a.assets.Remove(id); err != nil {
		a.log.Warn().Err(err).Str("id", id).Msg("Failed to remove item assets")
	}
	return nil
}

func (a *App) Wipe(ctx context.Context) error {
	return a.catalogRepo.Wipe(ctx)
}

func (a *App) Counts(ctx context.Context) (domain.CatalogCounts, error) {
	return a.catalogRepo.Counts(ctx)
}

// Export writes the catalog to path as JSON, or YAML for .yaml/.yml.
func (a *App) Export(ctx context.Context, path string) (int, error) {
	groups, err := a.catalogRepo.Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := a.fileRepo.Store(ctx, path, groups); err != nil {
		return 0, err
	}
	return len(groups), nil
}

// Import replaces the catalog with the groups stored in path.
func (a *App) Import(ctx context.Context, path string) (int, error) {
	groups, err := a.fileRepo.Get(ctx, path)
	if err != nil {
		return 0, err
	}
	if err := a.catalogRepo.ReplaceAll(ctx, groups); err != nil {
		return 0, errors.Wrap(err, "failed to store imported catalog")
	}
	return len(groups), nil
}

// MigrateLegacy imports path as a legacy catalog file. An empty path uses
// the default location in the data directory.
func (a *App) MigrateLegacy(ctx context.Context, path string) (bool, error) {
	if path == "" {
		path = a.paths.LegacyPath
	}
	return database.MigrateLegacy(ctx, path, a.catalogRepo, a.log)
}
