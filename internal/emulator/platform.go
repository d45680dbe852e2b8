package emulator

import (
	_ "embed"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/varoOP/playshelf/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed platforms.yaml
var defaultPlatforms []byte

// Mode selects how titles are laid out below a ROM root.
type Mode string

const (
	ModeFile   Mode = "file"
	ModeFolder Mode = "folder"
)

const defaultArgs = `"{rom}"`

// SFOLayout locates the metadata file and executable payload inside a title
// folder, relative to that folder.
type SFOLayout struct {
	Param   string `yaml:"param"`
	Payload string `yaml:"payload"`
}

type Platform struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Mode       Mode        `yaml:"mode"`
	Extensions []string    `yaml:"extensions"`
	Exclude    []string    `yaml:"exclude"`
	Args       string      `yaml:"args"`
	SFO        []SFOLayout `yaml:"sfo"`

	excludes []glob.Glob
}

// Excluded reports whether name matches one of the platform's exclusion
// patterns. Matching ignores case.
func (p *Platform) Excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, g := range p.excludes {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

// LaunchArgs renders the argument template for rom.
func (p *Platform) LaunchArgs(rom string) string {
	return strings.ReplaceAll(p.Args, "{rom}", rom)
}

// Table is the set of known platforms.
type Table struct {
	Exclude   []string   `yaml:"exclude"`
	Platforms []Platform `yaml:"platforms"`

	byID map[string]*Platform
}

// LoadTable reads the platform table from path, or the built-in table when
// path is empty.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return ParseTable(defaultPlatforms)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read platforms file %s", path)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML platform table.
func ParseTable(data []byte) (*Table, error) {
	t := &Table{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, errors.Wrap(err, "could not decode platforms")
	}

	t.byID = make(map[string]*Platform, len(t.Platforms))
	for i := range t.Platforms {
		p := &t.Platforms[i]
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		if p.ID == "" {
			return nil, errors.Errorf("platform #%d has no id", i)
		}
		if _, dup := t.byID[p.ID]; dup {
			return nil, errors.Errorf("duplicate platform %q", p.ID)
		}

		switch p.Mode {
		case "":
			p.Mode = ModeFile
		case ModeFile, ModeFolder:
		default:
			return nil, errors.Errorf("platform %q: unknown mode %q", p.ID, p.Mode)
		}
		if p.Mode == ModeFile && len(p.Extensions) == 0 {
			return nil, errors.Errorf("platform %q: file mode needs extensions", p.ID)
		}
		for j, ext := range p.Extensions {
			p.Extensions[j] = strings.ToLower(strings.TrimPrefix(ext, "."))
		}
		if p.Args == "" {
			p.Args = defaultArgs
		}

		for _, pattern := range append(append([]string{}, t.Exclude...), p.Exclude...) {
			g, err := glob.Compile(strings.ToLower(pattern))
			if err != nil {
				return nil, errors.Wrapf(err, "platform %q: invalid exclude pattern %q", p.ID, pattern)
			}
			p.excludes = append(p.excludes, g)
		}

		t.byID[p.ID] = p
	}

	return t, nil
}

// Platform looks up a platform by id.
func (t *Table) Platform(id string) (*Platform, error) {
	p, ok := t.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, errors.Wrapf(domain.ErrUnknownPlatform, "%q", id)
	}
	return p, nil
}

// IDs lists the platform ids in table order.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.Platforms))
	for _, p := range t.Platforms {
		ids = append(ids, p.ID)
	}
	return ids
}
