package steam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/fileutil"
)

// artSource names where one artwork role can be found: custom grid images
// (base name without extension), the shared library cache and the CDN.
type artSource struct {
	role  domain.Role
	grid  string
	cache []string
	cdn   string
}

var artSources = []artSource{
	{
		role:  domain.RoleCover,
		grid:  "%sp",
		cache: []string{"%s_library_600x900.jpg", "%s/library_600x900.jpg"},
		cdn:   "library_600x900.jpg",
	},
	{
		role:  domain.RoleBanner,
		grid:  "%s",
		cache: []string{"%s_header.jpg", "%s/header.jpg"},
		cdn:   "header.jpg",
	},
	{
		role:  domain.RoleLogo,
		grid:  "%s_logo",
		cache: []string{"%s_logo.png", "%s/logo.png"},
		cdn:   "logo.png",
	},
	{
		role:  domain.RoleHero,
		grid:  "%s_hero",
		cache: []string{"%s_library_hero.jpg", "%s/library_hero.jpg"},
		cdn:   "library_hero.jpg",
	},
}

var gridExts = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// findLocal returns the first local image for src, searching custom grids
// before the shared library cache.
func (s *service) findLocal(appID string, src artSource) (string, bool) {
	for _, dir := range s.profiles.GridDirs() {
		base := filepath.Join(dir, fmt.Sprintf(src.grid, appID))
		for _, ext := range gridExts {
			if fileutil.Exists(base + ext) {
				return base + ext, true
			}
		}
	}

	cacheDir := filepath.Join(s.root, "appcache", "librarycache")
	for _, name := range src.cache {
		path := filepath.Join(cacheDir, filepath.FromSlash(fmt.Sprintf(name, appID)))
		if fileutil.Exists(path) {
			return path, true
		}
	}

	return "", false
}

// attachArtwork fills the artwork references of item. Local images are copied
// into the item's asset directory; anything else is queued for download and
// referenced at the path it will land on.
func (s *service) attachArtwork(ctx context.Context, appID string, item *domain.Item) (queued int) {
	for _, src := range artSources {
		if local, ok := s.findLocal(appID, src); ok {
			name := string(src.role) + filepath.Ext(local)
			dst := s.assets.Path(item.ID, name)
			if !sameSize(local, dst) {
				var err error
				if dst, err = s.assets.Import(item.ID, name, local); err != nil {
					s.log.Warn().Err(err).Str("id", item.ID).Str("role", string(src.role)).Msg("could not copy artwork")
					continue
				}
			}
			item.SetArtwork(src.role, dst)
			continue
		}

		dst := s.assets.Path(item.ID, string(src.role)+filepath.Ext(src.cdn))
		if fileutil.Exists(dst) {
			item.SetArtwork(src.role, dst)
			continue
		}
		if s.cdnURL == "" || s.queue == nil {
			continue
		}

		url := fmt.Sprintf(s.cdnURL, appID, src.cdn)
		if s.queue.Submit("artwork "+item.ID+" "+string(src.role), func(ctx context.Context) error {
			return s.assets.Download(ctx, url, dst)
		}) {
			item.SetArtwork(src.role, dst)
			queued++
		}
	}
	return queued
}

func sameSize(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return ai.Size() == bi.Size()
}
