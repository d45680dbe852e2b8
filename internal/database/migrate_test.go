package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/playshelf/internal/domain"
)

func writeLegacy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), domain.LegacyCatalog)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestMigrateLegacy_MissingFile(t *testing.T) {
	repo := newTestRepo(t)

	migrated, err := MigrateLegacy(context.Background(), filepath.Join(t.TempDir(), "nope.json"), repo, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, migrated)
}

func TestMigrateLegacy_ItemArray(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	path := writeLegacy(t, `[
		{"id": "steam_440", "title": "Team Fortress 2", "target": "steam://rungameid/440", "origin": "steam", "lastPlayed": 1709296200000},
		{"name": "Old Tool", "path": "C:\\Tools\\tool.exe", "installedAt": "2023-05-01T10:00:00Z"}
	]`)

	migrated, err := MigrateLegacy(ctx, path, repo, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, migrated)

	assert.NoFileExists(t, path)
	assert.FileExists(t, path+migratedSuffix)

	groups, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, legacyGroupID, groups[0].ID)
	require.Len(t, groups[0].Items, 2)

	tf2 := groups[0].Items[0]
	assert.Equal(t, "steam_440", tf2.ID)
	assert.Equal(t, time.UnixMilli(1709296200000).UTC(), tf2.LastPlayed)

	tool := groups[0].Items[1]
	assert.True(t, strings.HasPrefix(tool.ID, "manual_"))
	assert.Equal(t, "Old Tool", tool.Title)
	assert.Equal(t, `C:\Tools\tool.exe`, tool.Target)
	assert.Equal(t, domain.OriginManual, tool.Origin)
	assert.Equal(t, time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC), tool.InstalledAt)

	// second run is a no-op
	migrated, err = MigrateLegacy(ctx, path, repo, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, migrated)
}

func TestMigrateLegacy_GroupObject(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	path := writeLegacy(t, `{"groups": [
		{"id": "rpg", "name": "RPGs", "settings": {"sort": "title"}, "items": [
			{"id": "emu_snes_chrono-trigger", "title": "Chrono Trigger", "origin": "emulator"}
		]},
		{"id": "all", "name": "All", "items": [
			{"id": "emu_snes_chrono-trigger", "title": "Chrono Trigger", "origin": "emulator"}
		]}
	]}`)

	migrated, err := MigrateLegacy(ctx, path, repo, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, migrated)

	groups, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "RPGs", groups[0].Name)
	assert.JSONEq(t, `{"sort": "title"}`, string(groups[0].Settings))
	assert.Len(t, groups[1].Items, 1)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Items)
	assert.Equal(t, 2, counts.Memberships)
}

func TestMigrateLegacy_BrokenFile(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, content := range []string{`{"groups": [`, `"just a string"`, `{"other": 1}`} {
		path := writeLegacy(t, content)

		migrated, err := MigrateLegacy(ctx, path, repo, zerolog.Nop())
		require.Error(t, err, content)
		assert.False(t, migrated)
		assert.NoFileExists(t, path)
		assert.FileExists(t, path+brokenSuffix)
	}

	groups, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
