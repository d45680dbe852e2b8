// Package proxycache stores resized artwork in a flat, content-addressed
// directory so each size of each image is transcoded once.
package proxycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/fileutil"
	"github.com/varoOP/playshelf/internal/transcode"
	"golang.org/x/sync/singleflight"
)

// CacheFormatVersion is mixed into every key. Bump it whenever transcoder
// output changes so stale entries stop matching.
const CacheFormatVersion = 1

const (
	hashLength    = 16
	maxStemLength = 48
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Cache struct {
	log        zerolog.Logger
	dir        string
	maxBytes   int64
	transcoder transcode.Service

	group singleflight.Group
	mu    sync.Mutex
	now   func() time.Time
}

// Stats describes current cache usage.
type Stats struct {
	Dir        string    `json:"dir"`
	Entries    int       `json:"entries"`
	TotalBytes int64     `json:"total_bytes"`
	MaxBytes   int64     `json:"max_bytes"`
	Oldest     time.Time `json:"oldest"`
	Newest     time.Time `json:"newest"`
}

type entry struct {
	path    string
	size    int64
	modTime time.Time
}

// New returns a cache rooted at dir. maxBytes <= 0 disables pruning.
func New(log zerolog.Logger, dir string, maxBytes int64, transcoder transcode.Service) *Cache {
	return &Cache{
		log:        log.With().Str("module", "proxycache").Logger(),
		dir:        dir,
		maxBytes:   maxBytes,
		transcoder: transcoder,
		now:        time.Now,
	}
}

func (c *Cache) Dir() string {
	return c.dir
}

// GetOrCreate returns a file holding resolved at width×height. Without
// dimensions, or when the image cannot be transcoded, resolved itself is
// returned. Only context cancellation is reported as an error.
func (c *Cache) GetOrCreate(ctx context.Context, resolved string, width, height int) (string, error) {
	if width <= 0 && height <= 0 {
		return resolved, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		c.log.Debug().Str("path", resolved).Msg("source not a file, serving unchanged")
		return resolved, nil
	}

	name := EntryName(resolved, info, width, height)
	path := filepath.Join(c.dir, name)

	if fileutil.Exists(path) {
		c.touch(path)
		c.log.Trace().Str("entry", name).Msg("cache hit")
		return path, nil
	}

	v, _, _ := c.group.Do(name, func() (interface{}, error) {
		return c.create(ctx, resolved, path, width, height), nil
	})
	return v.(string), nil
}

func (c *Cache) create(ctx context.Context, resolved, path string, width, height int) string {
	if fileutil.Exists(path) {
		return path
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		c.log.Warn().Err(err).Str("dir", c.dir).Msg("could not create cache dir")
		return resolved
	}

	if err := c.transcoder.Transcode(ctx, resolved, path, transcode.ForSize(width, height)); err != nil {
		c.log.Warn().Err(err).Str("path", resolved).Msg("transcode failed, serving original")
		_ = os.Remove(path)
		return resolved
	}

	c.log.Debug().Str("entry", filepath.Base(path)).Msg("cache entry created")

	if c.maxBytes > 0 {
		if _, err := c.Prune(ctx, path); err != nil {
			c.log.Warn().Err(err).Msg("prune failed")
		}
	}
	return path
}

// EntryName is {sanitized-stem}_{hash}_{w}x{h}{ext}. The hash covers the
// path, modification time, size and CacheFormatVersion.
func EntryName(resolved string, info os.FileInfo, width, height int) string {
	key := fmt.Sprintf("%s|%d|%d|%d", resolved, info.ModTime().UnixNano(), info.Size(), CacheFormatVersion)
	sum := sha256.Sum256([]byte(key))
	hash := hex.EncodeToString(sum[:])[:hashLength]

	return fmt.Sprintf("%s_%s_%dx%d%s", sanitize(resolved), hash, width, height, transcode.OutputExt(resolved))
}

func sanitize(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "_.")
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}
	if stem == "" {
		stem = "image"
	}
	return stem
}

func (c *Cache) touch(path string) {
	now := c.now()
	if err := os.Chtimes(path, now, now); err != nil {
		c.log.Trace().Err(err).Str("path", path).Msg("could not refresh entry time")
	}
}

// Prune removes least recently used entries until the cache fits maxBytes.
// keep is never removed.
func (c *Cache) Prune(ctx context.Context, keep string) (int, error) {
	if c.maxBytes <= 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, total, err := c.scan()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if total <= c.maxBytes {
			break
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if keep != "" && filepath.Clean(e.path) == filepath.Clean(keep) {
			continue
		}
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			c.log.Warn().Err(err).Str("path", e.path).Msg("could not remove cache entry")
			continue
		}
		total -= e.size
		removed++
	}

	if removed > 0 {
		c.log.Debug().Int("removed", removed).Int64("bytes", total).Msg("cache pruned")
	}
	return removed, nil
}

func (c *Cache) Stats() (Stats, error) {
	s := Stats{Dir: c.dir, MaxBytes: c.maxBytes}

	entries, total, err := c.scan()
	if err != nil {
		return s, err
	}
	s.Entries = len(entries)
	s.TotalBytes = total
	if len(entries) > 0 {
		s.Oldest = entries[0].modTime
		s.Newest = entries[len(entries)-1].modTime
	}
	return s, nil
}

// Clear deletes every entry and reports how many were removed.
func (c *Cache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, _, err := c.scan()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrapf(err, "remove %s", e.path)
		}
		removed++
	}
	c.log.Info().Int("removed", removed).Msg("cache cleared")
	return removed, nil
}

// scan lists entries oldest first.
func (c *Cache) scan() ([]entry, int64, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, errors.Wrap(err, "read cache dir")
	}

	var (
		entries []entry
		total   int64
	)
	for _, d := range dirEntries {
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entry{
			path:    filepath.Join(c.dir, d.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	return entries, total, nil
}
