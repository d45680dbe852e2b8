package steam

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// per-user files that carry hidden flags and play times, relative to
// userdata/<uid>
var userConfigFiles = []string{
	filepath.Join("config", "localconfig.vdf"),
	filepath.Join("7", "remote", "sharedconfig.vdf"),
	filepath.Join("config", "cloudstorage", "cloud-storage-namespace-1.json"),
}

var imageExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {}, ".gif": {},
}

// ProfileIndex lists the user profiles below a store root. The profile with
// the most custom grid images is assumed to be the one in use and is listed
// first. The listing is computed once.
type ProfileIndex struct {
	root string

	once  sync.Once
	users []string
}

func NewProfileIndex(root string) *ProfileIndex {
	return &ProfileIndex{root: root}
}

// Users returns the profile directories, heaviest first.
func (p *ProfileIndex) Users() []string {
	p.once.Do(p.index)
	return p.users
}

// GridDirs returns the custom artwork folder of every profile that has one,
// heaviest first.
func (p *ProfileIndex) GridDirs() []string {
	var dirs []string
	for _, u := range p.Users() {
		dir := gridDir(u)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// ConfigFiles returns every per-user config file that exists.
func (p *ProfileIndex) ConfigFiles() []string {
	var files []string
	for _, u := range p.Users() {
		for _, rel := range userConfigFiles {
			path := filepath.Join(u, rel)
			if _, err := os.Stat(path); err == nil {
				files = append(files, path)
			}
		}
	}
	return files
}

func (p *ProfileIndex) index() {
	entries, err := os.ReadDir(filepath.Join(p.root, "userdata"))
	if err != nil {
		return
	}

	type profile struct {
		dir    string
		images int
	}

	var profiles []profile
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "0" || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(p.root, "userdata", e.Name())
		profiles = append(profiles, profile{dir: dir, images: countImages(gridDir(dir))})
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].images > profiles[j].images
	})

	for _, pr := range profiles {
		p.users = append(p.users, pr.dir)
	}
}

func gridDir(user string) string {
	return filepath.Join(user, "config", "grid")
}

func countImages(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if _, ok := imageExts[strings.ToLower(filepath.Ext(e.Name()))]; ok && !e.IsDir() {
			n++
		}
	}
	return n
}
