package emulator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/sfo"
	"github.com/varoOP/playshelf/internal/slug"
)

// coverFile is the icon shipped next to PARAM.SFO on disc-based titles.
const coverFile = "ICON0.PNG"

// Request describes one ROM tree to scan.
type Request struct {
	Platform string
	Root     string
	Emulator string
}

type Service interface {
	Scan(ctx context.Context, req Request) ([]domain.Item, error)
	Platforms() []string
}

type service struct {
	log   zerolog.Logger
	table *Table
}

func NewService(log zerolog.Logger, table *Table) Service {
	return &service{
		log:   log.With().Str("module", "emulator").Logger(),
		table: table,
	}
}

func (s *service) Platforms() []string {
	return s.table.IDs()
}

// Scan lists the titles of one platform below req.Root.
func (s *service) Scan(ctx context.Context, req Request) ([]domain.Item, error) {
	p, err := s.table.Platform(req.Platform)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(req.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "rom root %s", req.Root)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("rom root %s is not a directory", req.Root)
	}

	log := s.log.With().Str("platform", p.ID).Str("root", req.Root).Logger()

	var found []title
	switch p.Mode {
	case ModeFolder:
		found, err = s.scanFolders(ctx, p, req.Root)
	default:
		found, err = s.scanFiles(ctx, p, req.Root)
	}
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(found))
	seen := make(map[string]string, len(found))
	for _, t := range found {
		id := itemID(p.ID, t.name)
		if prev, dup := seen[id]; dup {
			log.Warn().Str("id", id).Str("path", t.rom).Str("kept", prev).Msg("duplicate title skipped")
			continue
		}
		seen[id] = t.rom

		items = append(items, domain.Item{
			ID:          id,
			Title:       t.name,
			Target:      req.Emulator,
			Args:        p.LaunchArgs(t.rom),
			Origin:      domain.OriginEmulator,
			Cover:       t.cover,
			InstalledAt: t.modTime,
		})
	}

	log.Info().Int("items", len(items)).Msg("rom scan complete")
	return items, nil
}

type title struct {
	name    string
	rom     string
	cover   string
	modTime time.Time
}

func (s *service) scanFiles(ctx context.Context, p *Platform, root string) ([]title, error) {
	pattern := "**/*." + p.Extensions[0]
	if len(p.Extensions) > 1 {
		pattern = "**/*.{" + strings.Join(p.Extensions, ",") + "}"
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern,
		doublestar.WithFilesOnly(),
		doublestar.WithCaseInsensitive(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", pattern)
	}
	sort.Strings(matches)

	titles := make([]title, 0, len(matches))
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(rel)
		if p.Excluded(name) || hiddenPath(rel) {
			s.log.Debug().Str("file", rel).Msg("excluded")
			continue
		}

		full := filepath.Join(root, filepath.FromSlash(rel))
		t := title{name: CleanFileName(name), rom: full}
		if info, err := os.Stat(full); err == nil {
			t.modTime = info.ModTime().UTC()
		}
		titles = append(titles, t)
	}

	return titles, nil
}

func (s *service) scanFolders(ctx context.Context, p *Platform, root string) ([]title, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "read rom root %s", root)
	}

	titles := make([]title, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || p.Excluded(e.Name()) {
			continue
		}

		dir := filepath.Join(root, e.Name())
		t := title{name: CleanName(e.Name()), rom: dir}
		if info, err := e.Info(); err == nil {
			t.modTime = info.ModTime().UTC()
		}

		for _, layout := range p.SFO {
			paramPath, ok := findFold(dir, layout.Param)
			if !ok {
				continue
			}
			name, ok := sfo.ReadTitle(paramPath)
			if !ok || strings.TrimSpace(name) == "" {
				s.log.Warn().Str("file", paramPath).Msg("unreadable title metadata")
				continue
			}
			t.name = strings.TrimSpace(name)
			if payload, ok := findFold(dir, layout.Payload); ok {
				t.rom = payload
			}
			if cover, ok := findFold(filepath.Dir(paramPath), coverFile); ok {
				t.cover = cover
			}
			break
		}

		titles = append(titles, t)
	}

	return titles, nil
}

// findFold resolves rel below dir matching each path segment without regard
// to case.
func findFold(dir, rel string) (string, bool) {
	current := dir
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" {
			continue
		}
		entries, err := os.ReadDir(current)
		if err != nil {
			return "", false
		}
		next := ""
		for _, e := range entries {
			if e.Name() == part {
				next = e.Name()
				break
			}
			if next == "" && strings.EqualFold(e.Name(), part) {
				next = e.Name()
			}
		}
		if next == "" {
			return "", false
		}
		current = filepath.Join(current, next)
	}

	if _, err := os.Stat(current); err != nil {
		return "", false
	}
	return current, true
}

func hiddenPath(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func itemID(platform, name string) string {
	s := slug.Make(name)
	if s == "" {
		s = "untitled"
	}
	return "emu_" + platform + "_" + s
}
