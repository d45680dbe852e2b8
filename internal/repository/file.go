package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/fileutil"
	"gopkg.in/yaml.v3"
)

// FileRepository reads and writes catalog snapshots as JSON or YAML files
type FileRepository struct {
	log zerolog.Logger
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

// snapshot is the on-disk layout; it matches the grouped legacy catalog so an
// export can be dropped in as catalog.json.
type snapshot struct {
	Groups []snapshotGroup `json:"groups" yaml:"groups"`
}

type snapshotGroup struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Icon     string          `json:"icon,omitempty" yaml:"icon,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty" yaml:"-"`
	Prefs    map[string]any  `json:"-" yaml:"settings,omitempty"`
	Items    []domain.Item   `json:"items" yaml:"items"`
}

// Get reads a catalog snapshot from path
func (r *FileRepository) Get(ctx context.Context, path string) ([]domain.Group, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var s snapshot
	if isYAML(path) {
		if err := yaml.Unmarshal(body, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml from %s: %w", path, err)
		}
	} else if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json from %s: %w", path, err)
	}

	groups := make([]domain.Group, 0, len(s.Groups))
	for _, g := range s.Groups {
		settings := g.Settings
		if g.Prefs != nil {
			if settings, err = json.Marshal(g.Prefs); err != nil {
				return nil, fmt.Errorf("failed to encode settings of group %s: %w", g.ID, err)
			}
		}
		items := g.Items
		if items == nil {
			items = []domain.Item{}
		}
		groups = append(groups, domain.Group{
			ID:       g.ID,
			Name:     g.Name,
			Icon:     g.Icon,
			Settings: settings,
			Items:    items,
		})
	}

	return groups, nil
}

// Store writes groups to path, as YAML when the extension asks for it
func (r *FileRepository) Store(ctx context.Context, path string, groups []domain.Group) error {
	s := snapshot{Groups: make([]snapshotGroup, 0, len(groups))}
	for _, g := range groups {
		sg := snapshotGroup{ID: g.ID, Name: g.Name, Icon: g.Icon, Settings: g.Settings, Items: g.Items}
		if len(g.Settings) > 0 {
			if err := json.Unmarshal(g.Settings, &sg.Prefs); err != nil {
				r.log.Warn().Err(err).Str("group", g.ID).Msg("settings are not an object, omitted from yaml")
			}
		}
		s.Groups = append(s.Groups, sg)
	}

	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(s)
	} else {
		b, err = json.MarshalIndent(s, "", "   ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	}); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	r.log.Debug().Str("path", path).Int("groups", len(groups)).Msg("stored catalog snapshot")
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
