// Package osapps lists the applications registered with the operating
// system and turns them into launchable catalog items.
package osapps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/fileutil"
	"github.com/varoOP/playshelf/internal/repository"
	"github.com/varoOP/playshelf/internal/slug"
)

const (
	idPrefix     = "app_"
	ShortcutName = "launch.url"
)

type Service interface {
	domain.Scanner
}

type service struct {
	log        zerolog.Logger
	enumerator Enumerator
	heuristics *domain.Heuristics
	assets     *repository.AssetStore
}

func NewService(log zerolog.Logger, enumerator Enumerator, heuristics *domain.Heuristics, assets *repository.AssetStore) Service {
	if heuristics == nil {
		heuristics = &domain.Heuristics{}
	}
	return &service{
		log:        log.With().Str("module", "osapps").Logger(),
		enumerator: enumerator,
		heuristics: heuristics,
		assets:     assets,
	}
}

type entry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ExecPath    string `json:"execPath"`
	LogoPath    string `json:"logoPath"`
	InstallDate string `json:"installDate"`
}

// Scan never fails: an enumerator error or unreadable output yields an empty
// list.
func (s *service) Scan(ctx context.Context, opts domain.ScanOptions) ([]domain.Item, error) {
	items := []domain.Item{}

	raw, err := s.enumerator.Enumerate(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("application enumeration failed")
		return items, nil
	}

	entries, err := decodeEntries(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("application list unreadable")
		return items, nil
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e.ID = strings.TrimSpace(e.ID)
		e.Title = strings.TrimSpace(e.Title)
		if e.ID == "" || e.Title == "" || e.ExecPath == "" {
			s.log.Debug().Str("id", e.ID).Str("title", e.Title).Msg("incomplete entry skipped")
			continue
		}
		if !opts.IncludeSoftware && s.heuristics.MatchesUtilityKeyword(e.Title) {
			s.log.Debug().Str("title", e.Title).Msg("utility skipped")
			continue
		}

		id := itemID(e)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		shortcut, err := s.assets.WriteFile(id, ShortcutName, shortcutFor(e.ExecPath))
		if err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("could not write launch shortcut")
			continue
		}

		item := domain.Item{
			ID:          id,
			Title:       e.Title,
			Target:      shortcut,
			Origin:      domain.OriginApps,
			InstalledAt: parseInstallDate(e.InstallDate),
		}

		if fileutil.Exists(e.LogoPath) {
			name := string(domain.RoleLogo) + strings.ToLower(filepath.Ext(e.LogoPath))
			if logo, err := s.assets.Import(id, name, e.LogoPath); err == nil {
				item.Logo = logo
			} else {
				s.log.Warn().Err(err).Str("id", id).Msg("could not copy logo")
			}
		}

		items = append(items, item)
	}

	s.log.Info().Int("entries", len(entries)).Int("items", len(items)).Msg("application scan complete")
	return items, nil
}

func decodeEntries(raw []byte) ([]entry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	// a single result is emitted as a bare object
	if raw[0] == '{' {
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return []entry{e}, nil
	}

	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func itemID(e entry) string {
	s := slug.Make(e.ID)
	if s == "" {
		s = slug.Make(e.Title)
	}
	return idPrefix + s
}

// shortcutFor builds a .url file for a Windows executable path. Separators
// are converted by hand since the scan may run on any host.
func shortcutFor(execPath string) []byte {
	p := strings.ReplaceAll(execPath, `\`, "/")
	u := url.URL{Scheme: "file", Path: "/" + strings.TrimPrefix(p, "/")}
	return []byte(fmt.Sprintf("[InternetShortcut]\r\nURL=%s\r\n", u.String()))
}

// parseInstallDate accepts the registry's yyyyMMdd, RFC 3339 and unix seconds.
func parseInstallDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("20060102", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}
