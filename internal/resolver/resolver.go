// Package resolver maps a stored artwork reference, which may be encoded
// several times over or point at a moved data directory, to a file on disk.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/fileutil"
)

const (
	WideTemplate   = "template_wide.png"
	NarrowTemplate = "template_cover.png"

	DefaultWideThreshold = 800

	assetsSegment = domain.AssetsDirName
)

// ErrNoTemplate is returned when nothing matched and the fallback template is
// missing too.
var ErrNoTemplate = errors.Wrap(domain.ErrNotFound, "no template image")

type Config struct {
	AssetsRoot    string
	TemplatesDir  string
	BaseDir       string
	WideThreshold int
}

type Resolver struct {
	log           zerolog.Logger
	assetsRoot    string
	templatesDir  string
	baseDir       string
	wideThreshold int
	strategies    []strategy
}

// strategy inspects the expanded candidates and reports a match.
type strategy struct {
	name string
	find func(candidates []string) (string, bool)
}

func New(log zerolog.Logger, cfg Config) *Resolver {
	if cfg.WideThreshold <= 0 {
		cfg.WideThreshold = DefaultWideThreshold
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir, _ = os.Getwd()
	}

	r := &Resolver{
		log:           log.With().Str("module", "resolver").Logger(),
		assetsRoot:    cfg.AssetsRoot,
		templatesDir:  cfg.TemplatesDir,
		baseDir:       cfg.BaseDir,
		wideThreshold: cfg.WideThreshold,
	}
	r.strategies = []strategy{
		{"exists", firstExisting},
		{"extension swap", swapExtension},
		{"asset rebase", r.rebaseAssets},
		{"directory listing", matchStem},
	}
	return r
}

// Resolve returns the file raw refers to. When nothing matches it falls back
// to the wide or narrow template, picked by hintedWidth. The only error is
// ErrNoTemplate.
func (r *Resolver) Resolve(raw string, hintedWidth int) (string, error) {
	if strings.TrimSpace(raw) != "" {
		candidates := r.candidates(raw)
		for _, s := range r.strategies {
			if path, ok := s.find(candidates); ok {
				r.log.Trace().Str("raw", raw).Str("strategy", s.name).Str("path", path).Msg("resolved")
				return path, nil
			}
		}
	}

	template := r.Template(hintedWidth)
	if !fileutil.Exists(template) {
		return "", errors.Wrapf(ErrNoTemplate, "%s", template)
	}

	r.log.Debug().Str("raw", raw).Str("template", template).Msg("falling back to template")
	return template, nil
}

// Template returns the template path used for a request of hintedWidth.
func (r *Resolver) Template(hintedWidth int) string {
	if hintedWidth >= r.wideThreshold {
		return filepath.Join(r.templatesDir, WideTemplate)
	}
	return filepath.Join(r.templatesDir, NarrowTemplate)
}

func firstExisting(candidates []string) (string, bool) {
	for _, c := range candidates {
		if fileutil.Exists(c) {
			return c, true
		}
	}
	return "", false
}

var extensionSwaps = map[string][]string{
	".jpg":  {".png"},
	".jpeg": {".png"},
	".png":  {".jpg", ".jpeg"},
}

// swapExtension tries the .jpg/.png sibling of every candidate.
func swapExtension(candidates []string) (string, bool) {
	for _, c := range candidates {
		ext := filepath.Ext(c)
		for _, alt := range extensionSwaps[strings.ToLower(ext)] {
			if ext != strings.ToLower(ext) {
				alt = strings.ToUpper(alt)
			}
			sibling := strings.TrimSuffix(c, ext) + alt
			if fileutil.Exists(sibling) {
				return sibling, true
			}
		}
	}
	return "", false
}

// rebaseAssets re-anchors {item}/{file} of a reference into an assets
// directory at the current assets root, then matches the file by stem.
func (r *Resolver) rebaseAssets(candidates []string) (string, bool) {
	if r.assetsRoot == "" {
		return "", false
	}

	for _, c := range candidates {
		parts := splitAny(c)
		if len(parts) < 3 || !containsFold(parts[:len(parts)-2], assetsSegment) {
			continue
		}

		parent, base := parts[len(parts)-2], parts[len(parts)-1]
		rebased := filepath.Join(r.assetsRoot, parent, base)
		if fileutil.Exists(rebased) {
			return rebased, true
		}
		if path, ok := findStem(filepath.Join(r.assetsRoot, parent), base); ok {
			return path, true
		}
	}
	return "", false
}

// matchStem lists each candidate's directory for a file with the same name
// minus extension.
func matchStem(candidates []string) (string, bool) {
	for _, c := range candidates {
		if path, ok := findStem(filepath.Dir(c), filepath.Base(c)); ok {
			return path, true
		}
	}
	return "", false
}

func findStem(dir, name string) (string, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return "", false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.TrimSuffix(n, filepath.Ext(n)) == stem {
			return filepath.Join(dir, n), true
		}
	}
	return "", false
}

func splitAny(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
}

func containsFold(parts []string, s string) bool {
	for _, p := range parts {
		if strings.EqualFold(p, s) {
			return true
		}
	}
	return false
}
