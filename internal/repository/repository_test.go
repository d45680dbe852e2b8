package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/playshelf/internal/domain"
)

func testGroups() []domain.Group {
	return []domain.Group{
		{
			ID:       "favorites",
			Name:     "Favorites",
			Settings: json.RawMessage(`{"layout":"grid"}`),
			Items: []domain.Item{{
				ID:         "steam_620",
				Title:      "Portal 2",
				Target:     "steam://rungameid/620",
				Origin:     domain.OriginSteam,
				LastPlayed: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			}},
		},
	}
}

func TestFileRepository_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "export.json")

	require.NoError(t, repo.Store(ctx, path, testGroups()))

	groups, err := repo.Get(ctx, path)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Portal 2", groups[0].Items[0].Title)
	assert.True(t, groups[0].Items[0].LastPlayed.Equal(testGroups()[0].Items[0].LastPlayed))
	assert.JSONEq(t, `{"layout":"grid"}`, string(groups[0].Settings))
}

func TestFileRepository_YAMLRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "export.yaml")

	require.NoError(t, repo.Store(ctx, path, testGroups()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "layout: grid")

	groups, err := repo.Get(ctx, path)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "steam_620", groups[0].Items[0].ID)
	assert.JSONEq(t, `{"layout":"grid"}`, string(groups[0].Settings))
}

func TestFileRepository_GetErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(zerolog.Nop())
	dir := t.TempDir()

	_, err := repo.Get(ctx, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = repo.Get(ctx, dir)
	assert.Error(t, err)
}

func TestAssetStore(t *testing.T) {
	root := t.TempDir()
	store := NewAssetStore(zerolog.Nop(), root)

	src := filepath.Join(t.TempDir(), "grid.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0644))

	dst, err := store.Import("steam_620", "cover.png", src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "steam_620", "cover.png"), dst)
	assert.FileExists(t, dst)

	_, err = store.WriteFile("app_notepad", "launch.url", []byte("[InternetShortcut]\n"))
	require.NoError(t, err)

	require.NoError(t, store.Remove("steam_620"))
	assert.NoDirExists(t, store.Dir("steam_620"))
	assert.Error(t, store.Remove("../escape"))
}

func TestAssetStore_Download(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	store := NewAssetStore(zerolog.Nop(), t.TempDir())
	dst := store.Path("steam_440", "cover.jpg")

	require.NoError(t, store.Download(context.Background(), srv.URL+"/cover.jpg", dst))
	require.NoError(t, store.Download(context.Background(), srv.URL+"/cover.jpg", dst))
	assert.Equal(t, 1, hits)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(got))

	missing := store.Path("steam_440", "hero.jpg")
	assert.Error(t, store.Download(context.Background(), srv.URL+"/missing.jpg", missing))
	assert.NoFileExists(t, missing)
}
