package proxycache

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/playshelf/internal/transcode"
)

func newCache(t *testing.T, maxBytes int64) *Cache {
	t.Helper()
	return New(zerolog.Nop(), filepath.Join(t.TempDir(), "cache"), maxBytes, transcode.NewService(zerolog.Nop()))
}

func writeImage(t *testing.T, path string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestGetOrCreate(t *testing.T) {
	c := newCache(t, 0)
	ctx := context.Background()
	src := writeImage(t, filepath.Join(t.TempDir(), "Half-Life 2 (cover).png"), 300, 450)

	path, err := c.GetOrCreate(ctx, src, 100, 150)
	require.NoError(t, err)
	assert.Equal(t, c.Dir(), filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^Half-Life_2_cover_[0-9a-f]{16}_100x150\.png$`), filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 150, cfg.Height)

	again, err := c.GetOrCreate(ctx, src, 100, 150)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	other, err := c.GetOrCreate(ctx, src, 60, 0)
	require.NoError(t, err)
	assert.NotEqual(t, path, other)
}

func TestGetOrCreate_Passthrough(t *testing.T) {
	c := newCache(t, 0)
	ctx := context.Background()
	src := writeImage(t, filepath.Join(t.TempDir(), "a.png"), 10, 10)

	path, err := c.GetOrCreate(ctx, src, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, src, path)

	path, err = c.GetOrCreate(ctx, "/missing/b.png", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, "/missing/b.png", path)

	broken := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0644))
	path, err = c.GetOrCreate(ctx, broken, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, broken, path)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}

func TestGetOrCreate_Canceled(t *testing.T) {
	c := newCache(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetOrCreate(ctx, "x.png", 10, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntryName(t *testing.T) {
	src := writeImage(t, filepath.Join(t.TempDir(), "logo.jpg"), 4, 4)

	info, err := os.Stat(src)
	require.NoError(t, err)
	first := EntryName(src, info, 32, 32)
	assert.Equal(t, first, EntryName(src, info, 32, 32))
	assert.Regexp(t, `^logo_[0-9a-f]{16}_32x32\.jpg$`, first)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, later, later))
	info, err = os.Stat(src)
	require.NoError(t, err)
	assert.NotEqual(t, first, EntryName(src, info, 32, 32))

	assert.Equal(t, "image", sanitize("/x/???.png"))
	assert.Equal(t, "cover", sanitize(`C:\games\cover.webp`))
}

func seed(t *testing.T, c *Cache, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(c.Dir(), 0755))
	base := time.Now().Add(-time.Hour)
	for i, n := range names {
		p := filepath.Join(c.Dir(), n)
		require.NoError(t, os.WriteFile(p, bytes.Repeat([]byte("x"), 100), 0644))
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, at, at))
	}
}

func TestPrune(t *testing.T) {
	c := newCache(t, 250)
	seed(t, c, "old.png", "mid.png", "new.png")

	removed, err := c.Prune(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, filepath.Join(c.Dir(), "old.png"))
	assert.FileExists(t, filepath.Join(c.Dir(), "mid.png"))
}

func TestPrune_KeepsActiveEntry(t *testing.T) {
	c := newCache(t, 250)
	seed(t, c, "old.png", "mid.png", "new.png")

	removed, err := c.Prune(context.Background(), filepath.Join(c.Dir(), "old.png"))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.FileExists(t, filepath.Join(c.Dir(), "old.png"))
	assert.NoFileExists(t, filepath.Join(c.Dir(), "mid.png"))
}

func TestPrune_HitRefreshesRecency(t *testing.T) {
	c := newCache(t, 250)
	src := writeImage(t, filepath.Join(t.TempDir(), "hot.png"), 8, 8)
	ctx := context.Background()

	hot, err := c.GetOrCreate(ctx, src, 4, 4)
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(hot, past, past))

	seed(t, c, "a.png", "b.png")

	// the hit moves the entry to the front of the recency order
	_, err = c.GetOrCreate(ctx, src, 4, 4)
	require.NoError(t, err)

	_, err = c.Prune(ctx, "")
	require.NoError(t, err)
	assert.FileExists(t, hot)
	assert.NoFileExists(t, filepath.Join(c.Dir(), "a.png"))
}

func TestStatsAndClear(t *testing.T) {
	c := newCache(t, 1000)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)

	seed(t, c, "a.png", "b.png")
	stats, err = c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(200), stats.TotalBytes)
	assert.Equal(t, int64(1000), stats.MaxBytes)
	assert.True(t, stats.Oldest.Before(stats.Newest))

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err = c.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}
