package steam

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	libraryPathRe = regexp.MustCompile(`"path"\s+"([^"]+)"`)

	manifestIDRe      = regexp.MustCompile(`(?i)"appid"\s+"(\d+)"`)
	manifestNameRe    = regexp.MustCompile(`"name"\s+"([^"]+)"`)
	manifestUpdatedRe = regexp.MustCompile(`"LastUpdated"\s+"(\d+)"`)

	appBlockRe   = regexp.MustCompile(`"(\d+)"\s*\{`)
	lastPlayedRe = regexp.MustCompile(`(?i)"LastPlayed"\s+"(\d+)"`)
	hiddenKeyRe  = regexp.MustCompile(`(?i)"Hidden"\s+"1"`)

	hiddenCollectionRe = regexp.MustCompile(`"id"\s*:\s*"hidden"[^\]]*?"added"\s*:\s*\[([\d,\s]*)\]`)
)

// parseLibraryPaths extracts the library roots listed in libraryfolders.vdf.
func parseLibraryPaths(data string) []string {
	var paths []string
	seen := make(map[string]struct{})
	for _, m := range libraryPathRe.FindAllStringSubmatch(data, -1) {
		p := strings.ReplaceAll(m[1], `\\`, `\`)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}

type manifest struct {
	ID          string
	Name        string
	LastUpdated time.Time
}

// parseManifest reads an appmanifest_*.acf file. Missing id or name reports
// false.
func parseManifest(data string) (manifest, bool) {
	var m manifest

	id := manifestIDRe.FindStringSubmatch(data)
	name := manifestNameRe.FindStringSubmatch(data)
	if id == nil || name == nil || strings.TrimSpace(name[1]) == "" {
		return m, false
	}

	m.ID = id[1]
	m.Name = strings.TrimSpace(name[1])
	if u := manifestUpdatedRe.FindStringSubmatch(data); u != nil {
		m.LastUpdated = unixTime(u[1])
	}
	return m, true
}

// userState is what the per-user config files say about installed titles.
type userState struct {
	hidden     map[string]struct{}
	lastPlayed map[string]time.Time
}

func newUserState() *userState {
	return &userState{
		hidden:     make(map[string]struct{}),
		lastPlayed: make(map[string]time.Time),
	}
}

// merge folds one config file into the state.
func (u *userState) merge(data string) {
	for id, body := range appBlocks(data) {
		if hiddenKeyRe.MatchString(body) {
			u.hidden[id] = struct{}{}
		}
		if m := lastPlayedRe.FindStringSubmatch(body); m != nil {
			if t := unixTime(m[1]); t.After(u.lastPlayed[id]) {
				u.lastPlayed[id] = t
			}
		}
	}

	// collections are stored as escaped JSON inside VDF and JSON files
	unescaped := strings.ReplaceAll(data, `\`, "")
	for _, m := range hiddenCollectionRe.FindAllStringSubmatch(unescaped, -1) {
		for _, id := range strings.Split(m[1], ",") {
			if id = strings.TrimSpace(id); id != "" {
				u.hidden[id] = struct{}{}
			}
		}
	}
}

// appBlocks maps every numerically keyed block to its own top-level text,
// with nested blocks cut out.
func appBlocks(data string) map[string]string {
	blocks := make(map[string]string)
	for _, loc := range appBlockRe.FindAllStringSubmatchIndex(data, -1) {
		id := data[loc[2]:loc[3]]
		var (
			body    strings.Builder
			depth   = 1
			inQuote bool
		)
		for i := loc[1]; i < len(data) && depth > 0; i++ {
			c := data[i]
			switch {
			case inQuote && c == '\\' && i+1 < len(data):
				if depth == 1 {
					body.WriteByte(c)
					body.WriteByte(data[i+1])
				}
				i++
				continue
			case c == '"':
				inQuote = !inQuote
			case !inQuote && c == '{':
				depth++
				continue
			case !inQuote && c == '}':
				depth--
				continue
			}
			if depth == 1 {
				body.WriteByte(c)
			}
		}
		blocks[id] += body.String()
	}
	return blocks
}

func unixTime(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
