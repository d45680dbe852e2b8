// Package steam lists the titles installed through the Steam client by
// reading its library index, app manifests and per-user config files.
package steam

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/repository"
	"github.com/varoOP/playshelf/internal/workqueue"
)

const (
	idPrefix     = "steam_"
	launchPrefix = "steam://rungameid/"

	tagWorkers = 8
)

var libraryIndexCandidates = []string{
	filepath.Join("steamapps", "libraryfolders.vdf"),
	filepath.Join("config", "libraryfolders.vdf"),
}

// Queue schedules background artwork downloads.
type Queue interface {
	Submit(name string, fn workqueue.TaskFunc) bool
}

type Service interface {
	domain.Scanner
}

type service struct {
	log        zerolog.Logger
	root       string
	cdnURL     string
	heuristics *domain.Heuristics
	tags       domain.TagSource
	assets     *repository.AssetStore
	queue      Queue
	profiles   *ProfileIndex
}

// NewService creates a scanner for the Steam install at root. cdnURL is a
// format with two %s verbs, app id and file name; empty disables downloads.
// profiles is the memoized profile listing of root, built when nil. tags and
// queue may be nil.
func NewService(log zerolog.Logger, root, cdnURL string, heuristics *domain.Heuristics, profiles *ProfileIndex, tags domain.TagSource, assets *repository.AssetStore, queue Queue) Service {
	if heuristics == nil {
		heuristics = &domain.Heuristics{}
	}
	if profiles == nil {
		profiles = NewProfileIndex(root)
	}
	return &service{
		log:        log.With().Str("module", "steam").Logger(),
		root:       root,
		cdnURL:     cdnURL,
		heuristics: heuristics,
		tags:       tags,
		assets:     assets,
		queue:      queue,
		profiles:   profiles,
	}
}

type candidate struct {
	manifest
	file string
}

type classified struct {
	item domain.Item
	keep bool
}

func (s *service) Scan(ctx context.Context, opts domain.ScanOptions) ([]domain.Item, error) {
	index, err := s.libraryIndex()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(index)
	if err != nil {
		return nil, errors.Wrapf(err, "read library index %s", index)
	}

	libraries := parseLibraryPaths(string(data))
	s.log.Debug().Str("index", index).Int("libraries", len(libraries)).Msg("library index read")

	state := newUserState()
	for _, path := range s.profiles.ConfigFiles() {
		b, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("could not read user config")
			continue
		}
		state.merge(string(b))
	}

	candidates := s.readManifests(ctx, libraries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := pool.NewWithResults[classified]().WithMaxGoroutines(tagWorkers)
	for _, c := range candidates {
		c := c
		p.Go(func() classified {
			return s.classify(ctx, c, state, opts)
		})
	}

	var (
		items  []domain.Item
		queued int
	)
	for _, r := range p.Wait() {
		if !r.keep {
			continue
		}
		item := r.item
		queued += s.attachArtwork(ctx, strings.TrimPrefix(item.ID, idPrefix), &item)
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
	})

	if persister, ok := s.tags.(interface{ Persist(context.Context) error }); ok {
		if err := persister.Persist(ctx); err != nil {
			s.log.Warn().Err(err).Msg("could not persist tag cache")
		}
	}

	s.log.Info().
		Int("manifests", len(candidates)).
		Int("items", len(items)).
		Int("artwork_queued", queued).
		Msg("steam scan complete")

	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

func (s *service) libraryIndex() (string, error) {
	for _, rel := range libraryIndexCandidates {
		path := filepath.Join(s.root, rel)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.Wrapf(domain.ErrLibraryIndexNotFound, "under %s", s.root)
}

// readManifests parses every app manifest of every library. Unreadable or
// incomplete manifests are skipped.
func (s *service) readManifests(ctx context.Context, libraries []string) []candidate {
	var out []candidate
	seen := make(map[string]struct{})

	for _, lib := range libraries {
		files, err := filepath.Glob(filepath.Join(lib, "steamapps", "appmanifest_*.acf"))
		if err != nil {
			s.log.Warn().Err(err).Str("library", lib).Msg("could not list manifests")
			continue
		}
		sort.Strings(files)

		for _, file := range files {
			if ctx.Err() != nil {
				return out
			}

			b, err := os.ReadFile(file)
			if err != nil {
				s.log.Warn().Err(err).Str("file", file).Msg("could not read manifest")
				continue
			}
			m, ok := parseManifest(string(b))
			if !ok {
				s.log.Warn().Str("file", file).Msg("manifest without id or name skipped")
				continue
			}
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, candidate{manifest: m, file: filepath.Base(file)})
		}
	}

	return out
}

func (s *service) classify(ctx context.Context, c candidate, state *userState, opts domain.ScanOptions) classified {
	log := s.log.With().Str("appid", c.ID).Str("name", c.Name).Logger()

	if _, hidden := state.hidden[c.ID]; hidden && !opts.IncludeHidden {
		log.Debug().Msg("hidden title skipped")
		return classified{}
	}

	utility := s.heuristics.IsUtilityID(c.ID) || s.heuristics.MatchesUtilityKeyword(c.Name, c.file)
	if utility && !opts.IncludeSoftware {
		log.Debug().Msg("utility skipped")
		return classified{}
	}

	var tags []string
	if s.tags != nil && (!opts.IncludeSoftware || !opts.IncludeAdult) {
		tags = s.tags.Tags(ctx, c.ID)
	}
	if !opts.IncludeSoftware && s.heuristics.HasSoftwareTag(tags) {
		log.Debug().Msg("software title skipped")
		return classified{}
	}
	if !opts.IncludeAdult && s.heuristics.HasAdultTag(tags) {
		log.Debug().Msg("adult title skipped")
		return classified{}
	}

	lastPlayed := c.LastUpdated
	if t, ok := state.lastPlayed[c.ID]; ok && !t.IsZero() {
		lastPlayed = t
	}

	return classified{
		keep: true,
		item: domain.Item{
			ID:          idPrefix + c.ID,
			Title:       c.Name,
			Target:      launchPrefix + c.ID,
			Origin:      domain.OriginSteam,
			LastPlayed:  lastPlayed,
			InstalledAt: c.LastUpdated,
		},
	}
}
