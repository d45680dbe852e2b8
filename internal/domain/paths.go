package domain

import "path/filepath"

const (
	DatabaseFile    = "playshelf.db"
	TagCacheFile    = "tags.db"
	LegacyCatalog   = "catalog.json"
	AssetsDirName   = "assets"
	CacheDirName    = "cache"
	TemplateDirName = "templates"
)

// Paths holds all the file locations derived from the data directory
type Paths struct {
	DataDir      string
	DatabasePath string
	TagCachePath string
	LegacyPath   string
	AssetsDir    string
	CacheDir     string
	TemplatesDir string
}

// NewPaths creates a new Paths instance rooted at dataDir. Explicit cache and
// template directories override the defaults when non-empty.
func NewPaths(dataDir, cacheDir, templatesDir string) *Paths {
	p := &Paths{
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, DatabaseFile),
		TagCachePath: filepath.Join(dataDir, TagCacheFile),
		LegacyPath:   filepath.Join(dataDir, LegacyCatalog),
		AssetsDir:    filepath.Join(dataDir, AssetsDirName),
		CacheDir:     filepath.Join(dataDir, CacheDirName),
		TemplatesDir: filepath.Join(dataDir, TemplateDirName),
	}
	if cacheDir != "" {
		p.CacheDir = cacheDir
	}
	if templatesDir != "" {
		p.TemplatesDir = templatesDir
	}
	return p
}

// ItemAssetDir is the per-item directory scanners write artwork into.
func (p *Paths) ItemAssetDir(itemID string) string {
	return filepath.Join(p.AssetsDir, itemID)
}
