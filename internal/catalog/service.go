// Package catalog merges scanner output into the persisted group list.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
)

const (
	ManualGroupID   = "manual"
	manualGroupName = "Library"
	manualIDPrefix  = "manual_"
)

// Target is the group scanned items are merged into.
type Target struct {
	GroupID string
	Name    string
	Origin  domain.Origin
}

var originNames = map[domain.Origin]string{
	domain.OriginSteam:    "Steam",
	domain.OriginApps:     "Applications",
	domain.OriginEmulator: "Emulators",
	domain.OriginManual:   manualGroupName,
}

// OriginTarget is the default group of an origin.
func OriginTarget(origin domain.Origin) Target {
	return Target{GroupID: string(origin), Name: originNames[origin], Origin: origin}
}

type Service interface {
	Merge(ctx context.Context, target Target, scanned []domain.Item) (domain.Statistics, error)
	CheckDupes(items []domain.Item) (int, []domain.Item)
	AddManual(ctx context.Context, groupID string, item domain.Item) (domain.Item, error)
	Find(ctx context.Context, id string) (domain.Item, error)
	SetArtwork(ctx context.Context, id string, role domain.Role, ref string) error
	Items(ctx context.Context) ([]domain.Item, error)
}

type service struct {
	log  zerolog.Logger
	repo domain.CatalogRepository
}

func NewService(log zerolog.Logger, repo domain.CatalogRepository) Service {
	return &service{
		log:  log.With().Str("module", "catalog").Logger(),
		repo: repo,
	}
}

// CheckDupes drops items whose id was already seen, keeping the first.
func (s *service) CheckDupes(items []domain.Item) (int, []domain.Item) {
	seen := make(map[string]struct{}, len(items))
	deduped := make([]domain.Item, 0, len(items))
	dupes := 0

	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			s.log.Debug().Str("id", it.ID).Str("title", it.Title).Msg("Dropping duplicate id")
			dupes++
			continue
		}
		seen[it.ID] = struct{}{}
		deduped = append(deduped, it)
	}

	if dupes > 0 {
		s.log.Info().Int("dupe_count", dupes).Msg("Found duplicates")
	}
	return dupes, deduped
}

// Merge replaces target's items of target.Origin with scanned. Members of
// another origin stay in the group, after the scanned items. Known items keep
// their last-played time and any artwork the scan did not find, and every
// group holding a copy sees the merged record.
func (s *service) Merge(ctx context.Context, target Target, scanned []domain.Item) (domain.Statistics, error) {
	dupes, scanned := s.CheckDupes(scanned)

	groups, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Statistics{}, errors.Wrap(err, "load catalog")
	}

	existing := make(map[string]domain.Item)
	for _, g := range groups {
		for _, it := range g.Items {
			if _, ok := existing[it.ID]; !ok {
				existing[it.ID] = it
			}
		}
	}

	stats := domain.Statistics{
		Origin:       target.Origin,
		Group:        target.GroupID,
		Scanned:      len(scanned),
		DuplicateIDs: dupes,
	}

	merged := make(map[string]domain.Item, len(scanned))
	for i, it := range scanned {
		if old, ok := existing[it.ID]; ok {
			it = mergeItem(old, it)
			stats.Updated++
		} else {
			stats.Added++
		}
		if it.Cover != "" {
			stats.WithCover++
		}
		scanned[i] = it
		merged[it.ID] = it
	}

	idx := findGroup(groups, target.GroupID)
	if idx < 0 {
		groups = append(groups, domain.Group{ID: target.GroupID, Name: target.Name})
		idx = len(groups) - 1
	}

	members := append([]domain.Item{}, scanned...)
	for _, it := range groups[idx].Items {
		if _, ok := merged[it.ID]; ok {
			continue
		}
		if it.Origin == target.Origin {
			stats.Removed++
			continue
		}
		members = append(members, it)
	}
	groups[idx].Items = members

	for gi := range groups {
		for ii, it := range groups[gi].Items {
			if m, ok := merged[it.ID]; ok {
				groups[gi].Items[ii] = m
			}
		}
	}

	if err := s.repo.ReplaceAll(ctx, groups); err != nil {
		return stats, errors.Wrap(err, "store catalog")
	}

	stats.TotalItems = countDistinct(groups)
	if stats.Scanned > 0 {
		stats.CoverPercent = float64(stats.WithCover) / float64(stats.Scanned) * 100
	}

	s.log.Info().
		Str("origin", string(target.Origin)).
		Str("group", target.GroupID).
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("removed", stats.Removed).
		Msg("Catalog merged")
	return stats, nil
}

// mergeItem keeps user state from old where the scan carries none.
func mergeItem(old, scanned domain.Item) domain.Item {
	if scanned.LastPlayed.Before(old.LastPlayed) {
		scanned.LastPlayed = old.LastPlayed
	}
	for _, role := range domain.ArtworkRoles {
		if scanned.Artwork(role) == "" {
			scanned.SetArtwork(role, old.Artwork(role))
		}
	}
	if scanned.InstalledAt.IsZero() {
		scanned.InstalledAt = old.InstalledAt
	}
	return scanned
}

// AddManual stores a user-entered item in groupID, creating the group if
// needed. The item gets a fresh manual_ id.
func (s *service) AddManual(ctx context.Context, groupID string, item domain.Item) (domain.Item, error) {
	item.Title = strings.TrimSpace(item.Title)
	item.Target = strings.TrimSpace(item.Target)
	if item.Title == "" || item.Target == "" {
		return item, errors.New("manual item needs a title and a target")
	}

	item.ID = manualIDPrefix + uuid.NewString()
	item.Origin = domain.OriginManual
	if item.InstalledAt.IsZero() {
		item.InstalledAt = time.Now().UTC()
	}
	if groupID == "" {
		groupID = ManualGroupID
	}

	groups, err := s.repo.Load(ctx)
	if err != nil {
		return item, errors.Wrap(err, "load catalog")
	}

	idx := findGroup(groups, groupID)
	if idx < 0 {
		name := groupID
		if groupID == ManualGroupID {
			name = manualGroupName
		}
		groups = append(groups, domain.Group{ID: groupID, Name: name})
		idx = len(groups) - 1
	}
	groups[idx].Items = append(groups[idx].Items, item)

	if err := s.repo.ReplaceAll(ctx, groups); err != nil {
		return item, errors.Wrap(err, "store catalog")
	}

	s.log.Info().Str("id", item.ID).Str("group", groupID).Msg("Manual item added")
	return item, nil
}

func (s *service) Find(ctx context.Context, id string) (domain.Item, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return domain.Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.Item{}, errors.Wrap(domain.ErrItemNotFound, id)
}

// SetArtwork points role of item id at ref in every group holding the item.
func (s *service) SetArtwork(ctx context.Context, id string, role domain.Role, ref string) error {
	groups, err := s.repo.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}

	found := false
	for gi := range groups {
		for ii := range groups[gi].Items {
			if groups[gi].Items[ii].ID == id {
				groups[gi].Items[ii].SetArtwork(role, ref)
				found = true
			}
		}
	}
	if !found {
		return errors.Wrap(domain.ErrItemNotFound, id)
	}

	return errors.Wrap(s.repo.ReplaceAll(ctx, groups), "store catalog")
}

// Items lists every distinct item in group order.
func (s *service) Items(ctx context.Context) ([]domain.Item, error) {
	groups, err := s.repo.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	seen := make(map[string]struct{})
	items := []domain.Item{}
	for _, g := range groups {
		for _, it := range g.Items {
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			items = append(items, it)
		}
	}
	return items, nil
}

func findGroup(groups []domain.Group, id string) int {
	for i, g := range groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func countDistinct(groups []domain.Group) int {
	seen := make(map[string]struct{})
	for _, g := range groups {
		for _, it := range g.Items {
			seen[it.ID] = struct{}{}
		}
	}
	return len(seen)
}
