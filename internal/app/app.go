package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/catalog"
	"github.com/varoOP/playshelf/internal/config"
	"github.com/varoOP/playshelf/internal/database"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/emulator"
	"github.com/varoOP/playshelf/internal/logger"
	"github.com/varoOP/playshelf/internal/notification"
	"github.com/varoOP/playshelf/internal/osapps"
	"github.com/varoOP/playshelf/internal/proxycache"
	"github.com/varoOP/playshelf/internal/repository"
	"github.com/varoOP/playshelf/internal/resolver"
	"github.com/varoOP/playshelf/internal/steam"
	"github.com/varoOP/playshelf/internal/tagcache"
	"github.com/varoOP/playshelf/internal/transcode"
	"github.com/varoOP/playshelf/internal/workqueue"
)

const prefetchBuffer = 512

// App represents the main application with all dependencies initialized
type App struct {
	log    zerolog.Logger
	config *domain.Config
	paths  *domain.Paths

	db          *database.DB
	catalogRepo domain.CatalogRepository
	fileRepo    *repository.FileRepository
	assets      *repository.AssetStore
	tagStore    *tagcache.Store
	queue       *workqueue.Queue
	platforms   *emulator.Table

	steamService        steam.Service
	appsService         osapps.Service
	emulatorService     emulator.Service
	catalogService      catalog.Service
	resolver            *resolver.Resolver
	transcoder          transcode.Service
	cache               *proxycache.Cache
	notificationService domain.NotificationService
}

// Options replaces collaborators that touch the host system.
type Options struct {
	Enumerator osapps.Enumerator
	TagFetcher tagcache.Fetcher
}

// NewApp loads the configuration and creates a new application instance
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	return New(ctx, cfg, logger.New(cfg.LogLevel), Options{})
}

// New wires every service for cfg, opens the catalog and imports a legacy
// catalog file when one is present.
func New(ctx context.Context, cfg *domain.Config, log zerolog.Logger, opts Options) (*App, error) {
	paths := domain.NewPaths(cfg.DataDir, cfg.CacheDir, cfg.TemplatesDir)

	heuristics, err := config.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		return nil, err
	}
	table, err := emulator.LoadTable(cfg.PlatformsFile)
	if err != nil {
		return nil, err
	}

	if err := EnsureTemplates(paths.TemplatesDir); err != nil {
		log.Warn().Err(err).Str("dir", paths.TemplatesDir).Msg("Failed to write templates")
	}

	db, err := database.NewDB(paths.DatabasePath, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}

	catalogRepo := database.NewCatalogRepo(log, db)
	if _, err := database.MigrateLegacy(ctx, paths.LegacyPath, catalogRepo, log); err != nil {
		log.Warn().Err(err).Msg("Legacy catalog migration failed")
	}

	if opts.Enumerator == nil {
		opts.Enumerator = osapps.NewPowerShellEnumerator()
	}
	if opts.TagFetcher == nil {
		opts.TagFetcher = tagcache.NewStorePageFetcher(log, cfg.TagLookupURL, cfg.TagTimeout, nil)
	}

	assets := repository.NewAssetStore(log, paths.AssetsDir)
	tagStore := tagcache.NewStore(log, paths.TagCachePath)
	tags := tagcache.NewService(log, tagStore, opts.TagFetcher)
	profiles := steam.NewProfileIndex(cfg.SteamPath)
	queue := workqueue.New(log, cfg.PrefetchWorkers, prefetchBuffer)
	transcoder := transcode.NewService(log)

	return &App{
		log:         log,
		config:      cfg,
		paths:       paths,
		db:          db,
		catalogRepo: catalogRepo,
		fileRepo:    repository.NewFileRepository(log),
		assets:      assets,
		tagStore:    tagStore,
		queue:       queue,
		platforms:   table,

		steamService:    steam.NewService(log, cfg.SteamPath, cfg.ArtworkCDNURL, heuristics, profiles, tags, assets, queue),
		appsService:     osapps.NewService(log, opts.Enumerator, heuristics, assets),
		emulatorService: emulator.NewService(log, table),
		catalogService:  catalog.NewService(log, catalogRepo),
		resolver: resolver.New(log, resolver.Config{
			AssetsRoot:    paths.AssetsDir,
			TemplatesDir:  paths.TemplatesDir,
			BaseDir:       paths.DataDir,
			WideThreshold: cfg.WideTemplateThreshold,
		}),
		transcoder:          transcoder,
		cache:               proxycache.New(log, paths.CacheDir, cfg.CacheMaxMB*1024*1024, transcoder),
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
	}, nil
}

func (a *App) Config() *domain.Config {
	return a.config
}

func (a *App) Paths() *domain.Paths {
	return a.paths
}

// Platforms lists the emulator platform ids known to the platform table.
func (a *App) Platforms() []string {
	return a.emulatorService.Platforms()
}

// WaitPrefetch blocks until queued artwork downloads finish or timeout
// passes.
func (a *App) WaitPrefetch(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for a.queue.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
}

// Close drains the download queue and releases every open file.
func (a *App) Close() error {
	a.queue.Close()
	completed, failed := a.queue.Stats()
	if completed+failed > 0 {
		a.log.Debug().Int("completed", completed).Int("failed", failed).Msg("Prefetch queue drained")
	}

	var firstErr error
	if err := a.tagStore.Persist(context.Background()); err != nil {
		firstErr = err
	}
	if err := a.tagStore.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
