package database

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
)

const (
	migratedSuffix = ".migrated"
	brokenSuffix   = ".broken"

	legacyGroupID   = "default"
	legacyGroupName = "Library"
)

// MigrateLegacy imports the single-file JSON catalog at path into repo.
// A missing file is not an error. On success the file is renamed with a
// .migrated suffix, on a parse or import failure with a .broken suffix, so the
// import runs at most once. A lock file next to path serializes concurrent
// callers.
func MigrateLegacy(ctx context.Context, path string, repo domain.CatalogRepository, log zerolog.Logger) (bool, error) {
	log = log.With().Str("module", "migrate").Str("path", path).Logger()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return false, errors.Wrap(err, "acquire migration lock")
	}
	if !locked {
		return false, errors.New("migration lock not acquired")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("failed to release migration lock")
		}
		os.Remove(path + ".lock")
	}()

	// another process may have finished while we waited
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrap(err, "read legacy catalog")
	}

	log.Info().Msg("Starting legacy catalog migration")

	groups, err := parseLegacy(data)
	if err == nil {
		err = repo.ReplaceAll(ctx, groups)
	}
	if err != nil {
		if renameErr := os.Rename(path, path+brokenSuffix); renameErr != nil {
			log.Error().Err(renameErr).Msg("failed to quarantine legacy catalog")
		}
		log.Error().Err(err).Msg("legacy catalog migration failed")
		return false, errors.Wrap(err, "migrate legacy catalog")
	}

	if err := os.Rename(path, path+migratedSuffix); err != nil {
		return true, errors.Wrap(err, "mark legacy catalog migrated")
	}

	items := 0
	for _, g := range groups {
		items += len(g.Items)
	}
	log.Info().Int("groups", len(groups)).Int("items", items).Msg("Legacy catalog migration complete")

	return true, nil
}

// legacyItem accepts the looser shapes older catalogs were written in.
type legacyItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Name        string     `json:"name"`
	Target      string     `json:"target"`
	Path        string     `json:"path"`
	Args        string     `json:"args"`
	Origin      string     `json:"origin"`
	Cover       string     `json:"cover"`
	Banner      string     `json:"banner"`
	Logo        string     `json:"logo"`
	Hero        string     `json:"hero"`
	LastPlayed  legacyTime `json:"lastPlayed"`
	InstalledAt legacyTime `json:"installedAt"`
}

type legacyGroup struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Icon     string          `json:"icon"`
	Settings json.RawMessage `json:"settings"`
	Items    []legacyItem    `json:"items"`
}

// legacyTime decodes epoch milliseconds, numeric strings or RFC 3339.
type legacyTime struct {
	time.Time
}

func (t *legacyTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" || s == "0" {
		return nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return errors.Wrapf(err, "invalid timestamp %q", s)
	}
	t.Time = parsed.UTC()
	return nil
}

func parseLegacy(data []byte) ([]domain.Group, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("legacy catalog is empty")
	}

	switch trimmed[0] {
	case '[':
		var items []legacyItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.Wrap(err, "decode legacy item list")
		}
		return []domain.Group{{
			ID:    legacyGroupID,
			Name:  legacyGroupName,
			Items: convertLegacyItems(items),
		}}, nil

	case '{':
		var doc struct {
			Groups []legacyGroup `json:"groups"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrap(err, "decode legacy catalog")
		}
		if doc.Groups == nil {
			return nil, errors.New("legacy catalog has no groups")
		}

		groups := make([]domain.Group, 0, len(doc.Groups))
		for i, g := range doc.Groups {
			if g.ID == "" {
				g.ID = "group_" + strconv.Itoa(i)
			}
			if g.Name == "" {
				g.Name = g.ID
			}
			var settings json.RawMessage
			if len(g.Settings) > 0 && string(g.Settings) != "null" {
				settings = g.Settings
			}
			groups = append(groups, domain.Group{
				ID:       g.ID,
				Name:     g.Name,
				Icon:     g.Icon,
				Settings: settings,
				Items:    convertLegacyItems(g.Items),
			})
		}
		return groups, nil
	}

	return nil, errors.Errorf("unrecognized legacy catalog shape %q", trimmed[0])
}

func convertLegacyItems(in []legacyItem) []domain.Item {
	out := make([]domain.Item, 0, len(in))
	for _, li := range in {
		item := domain.Item{
			ID:          li.ID,
			Title:       li.Title,
			Target:      li.Target,
			Args:        li.Args,
			Origin:      domain.Origin(li.Origin),
			Cover:       li.Cover,
			Banner:      li.Banner,
			Logo:        li.Logo,
			Hero:        li.Hero,
			LastPlayed:  li.LastPlayed.Time,
			InstalledAt: li.InstalledAt.Time,
		}
		if item.Title == "" {
			item.Title = li.Name
		}
		if item.Target == "" {
			item.Target = li.Path
		}
		if item.Origin == "" {
			item.Origin = domain.OriginManual
		}
		if item.ID == "" {
			item.ID = "manual_" + uuid.NewString()
		}
		out = append(out, item)
	}
	return out
}
