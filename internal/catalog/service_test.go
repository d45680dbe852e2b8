package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/playshelf/internal/database"
	"github.com/varoOP/playshelf/internal/domain"
)

func newService(t *testing.T) (Service, domain.CatalogRepository) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), domain.DatabaseFile), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewCatalogRepo(zerolog.Nop(), db)
	return NewService(zerolog.Nop(), repo), repo
}

func steamItem(id, title string) domain.Item {
	return domain.Item{
		ID:     "steam_" + id,
		Title:  title,
		Target: "steam://rungameid/" + id,
		Origin: domain.OriginSteam,
	}
}

func TestCheckDupes(t *testing.T) {
	svc, _ := newService(t)

	dupes, items := svc.CheckDupes([]domain.Item{
		steamItem("1", "First"),
		steamItem("2", "Second"),
		steamItem("1", "First again"),
	})
	assert.Equal(t, 1, dupes)
	require.Len(t, items, 2)
	assert.Equal(t, "First", items[0].Title)
}

func TestMerge(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	target := OriginTarget(domain.OriginSteam)

	first := steamItem("10", "Half-Life")
	first.Cover = "/assets/steam_10/cover.jpg"
	stats, err := svc.Merge(ctx, target, []domain.Item{first, steamItem("20", "Portal"), steamItem("20", "Portal")})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 1, stats.DuplicateIDs)
	assert.Equal(t, 1, stats.WithCover)
	assert.InDelta(t, 50.0, stats.CoverPercent, 0.01)

	played := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastPlayed(ctx, "steam_10", played))

	manual, err := svc.AddManual(ctx, target.GroupID, domain.Item{Title: "Mod", Target: `C:\mod.exe`})
	require.NoError(t, err)

	// rescan: Portal is gone, Half-Life lost its cover reference
	stats, err = svc.Merge(ctx, target, []domain.Item{steamItem("10", "Half-Life"), steamItem("30", "Portal 2")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 3, stats.TotalItems)

	groups, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Steam", groups[0].Name)

	items := groups[0].Items
	require.Len(t, items, 3)
	assert.Equal(t, "steam_10", items[0].ID)
	assert.Equal(t, played, items[0].LastPlayed)
	assert.Equal(t, "/assets/steam_10/cover.jpg", items[0].Cover)
	assert.Equal(t, "steam_30", items[1].ID)
	assert.Equal(t, manual.ID, items[2].ID)
}

func TestMerge_UpdatesCopiesInOtherGroups(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	old := steamItem("10", "Old Title")
	require.NoError(t, repo.ReplaceAll(ctx, []domain.Group{
		{ID: "favorites", Name: "Favorites", Items: []domain.Item{old}},
	}))

	_, err := svc.Merge(ctx, OriginTarget(domain.OriginSteam), []domain.Item{steamItem("10", "New Title")})
	require.NoError(t, err)

	groups, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "favorites", groups[0].ID)
	assert.Equal(t, "New Title", groups[0].Items[0].Title)
	assert.Equal(t, "New Title", groups[1].Items[0].Title)
}

func TestAddManual(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	item, err := svc.AddManual(ctx, "", domain.Item{Title: " Doom ", Target: "/games/doom"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(item.ID, "manual_"))
	assert.Equal(t, "Doom", item.Title)
	assert.Equal(t, domain.OriginManual, item.Origin)
	assert.False(t, item.InstalledAt.IsZero())

	found, err := svc.Find(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Title, found.Title)

	_, err = svc.AddManual(ctx, "", domain.Item{Title: "No target"})
	assert.Error(t, err)

	_, err = svc.Find(ctx, "manual_missing")
	assert.True(t, errors.Is(err, domain.ErrItemNotFound))
}

func TestSearch(t *testing.T) {
	items := []domain.Item{
		steamItem("1", "Half-Life 2"),
		steamItem("2", "Portal"),
		steamItem("3", "Hollow Knight"),
	}

	matches := Search(items, "hl2")
	require.NotEmpty(t, matches)
	assert.Equal(t, "Half-Life 2", matches[0].Item.Title)

	matches = Search(items, "PORT")
	require.Len(t, matches, 1)
	assert.Equal(t, "steam_2", matches[0].Item.ID)

	assert.Empty(t, Search(items, "  "))
	assert.Empty(t, Search(items, "zzz"))
}

func TestSetArtwork(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	item := steamItem("10", "Half-Life")
	require.NoError(t, repo.ReplaceAll(ctx, []domain.Group{
		{ID: "a", Name: "A", Items: []domain.Item{item}},
		{ID: "b", Name: "B", Items: []domain.Item{item}},
	}))

	require.NoError(t, svc.SetArtwork(ctx, "steam_10", domain.RoleBanner, "/assets/steam_10/banner.png"))

	found, err := svc.Find(ctx, "steam_10")
	require.NoError(t, err)
	assert.Equal(t, "/assets/steam_10/banner.png", found.Banner)

	err = svc.SetArtwork(ctx, "steam_99", domain.RoleBanner, "x")
	assert.True(t, errors.Is(err, domain.ErrItemNotFound))
}
