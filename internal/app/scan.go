package app

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/varoOP/playshelf/internal/catalog"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/emulator"
)

// ScanResult is what a scan hands back to the caller.
type ScanResult struct {
	Items []domain.Item
	Stats domain.Statistics
}

// ScanSteam reads the Steam library and merges it into the Steam group.
func (a *App) ScanSteam(ctx context.Context, opts domain.ScanOptions) (*ScanResult, error) {
	items, err := a.steamService.Scan(ctx, opts)
	if err != nil {
		msg := "failed to read the Steam library"
		if errors.Is(err, domain.ErrLibraryIndexNotFound) {
			msg = "no Steam library index found under " + a.config.SteamPath
		}
		return nil, a.scanFailed(ctx, domain.NewScanError(domain.OriginSteam, err, msg))
	}

	return a.merge(ctx, catalog.OriginTarget(domain.OriginSteam), items)
}

// ScanApps lists registered applications and merges them into the
// Applications group.
func (a *App) ScanApps(ctx context.Context, opts domain.ScanOptions) (*ScanResult, error) {
	items, err := a.appsService.Scan(ctx, opts)
	if err != nil {
		return nil, a.scanFailed(ctx, domain.NewScanError(domain.OriginApps, err, "failed to list installed applications"))
	}

	return a.merge(ctx, catalog.OriginTarget(domain.OriginApps), items)
}

// ScanEmulator lists the ROMs of one platform and merges them into that
// platform's group.
func (a *App) ScanEmulator(ctx context.Context, req emulator.Request) (*ScanResult, error) {
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))

	items, err := a.emulatorService.Scan(ctx, req)
	if err != nil {
		msg := "failed to scan " + req.Root
		if errors.Is(err, domain.ErrUnknownPlatform) {
			msg = "unknown platform " + req.Platform
		}
		return nil, a.scanFailed(ctx, domain.NewScanError(domain.OriginEmulator, err, msg))
	}

	target := catalog.Target{
		GroupID: "emu_" + req.Platform,
		Name:    strings.ToUpper(req.Platform),
		Origin:  domain.OriginEmulator,
	}
	if p, err := a.platforms.Platform(req.Platform); err == nil && p.Name != "" {
		target.Name = p.Name
	}
	return a.merge(ctx, target, items)
}

func (a *App) merge(ctx context.Context, target catalog.Target, items []domain.Item) (*ScanResult, error) {
	stats, err := a.catalogService.Merge(ctx, target, items)
	if err != nil {
		return nil, a.scanFailed(ctx, domain.NewScanError(target.Origin, err, "failed to store scan results"))
	}
	stats.PrefetchQueue = a.queue.Pending()

	if notifyErr := a.notificationService.SendSuccess(ctx, stats); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}

	return &ScanResult{Items: items, Stats: stats}, nil
}

func (a *App) scanFailed(ctx context.Context, err *domain.ScanError) error {
	if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
	}
	return err
}
