package domain

import (
	"context"
	"time"
)

// CatalogRepository defines the persisted catalog boundary
type CatalogRepository interface {
	Load(ctx context.Context) ([]Group, error)
	ReplaceAll(ctx context.Context, groups []Group) error
	DeleteItem(ctx context.Context, id string) error
	UpdateLastPlayed(ctx context.Context, id string, at time.Time) error
	Wipe(ctx context.Context) error
	Counts(ctx context.Context) (CatalogCounts, error)
}

// CatalogCounts reports row counts of the three catalog tables.
type CatalogCounts struct {
	Items       int
	Groups      int
	Memberships int
}

// TagCache maps a remote catalog id to its descriptive tags.
type TagCache interface {
	Load(ctx context.Context) error
	Get(ctx context.Context, id string) ([]string, bool)
	Put(ctx context.Context, id string, tags []string)
	Persist(ctx context.Context) error
}

// TagSource looks tags up for a remote id, going through a cache first.
type TagSource interface {
	Tags(ctx context.Context, id string) []string
}

// Scanner produces normalized items from one origin.
type Scanner interface {
	Scan(ctx context.Context, opts ScanOptions) ([]Item, error)
}
