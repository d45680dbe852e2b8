package domain

import (
	"encoding/json"
	"time"
)

// Origin tags the external source an item was ingested from.
type Origin string

const (
	OriginSteam    Origin = "steam"
	OriginApps     Origin = "apps"
	OriginEmulator Origin = "emulator"
	OriginManual   Origin = "manual"
)

// Role is the purpose an artwork image serves.
type Role string

const (
	RoleCover  Role = "cover"
	RoleBanner Role = "banner"
	RoleLogo   Role = "logo"
	RoleHero   Role = "hero"
	RoleIcon   Role = "icon"
)

// ArtworkRoles are the roles an item record carries a reference for.
var ArtworkRoles = []Role{RoleCover, RoleBanner, RoleLogo, RoleHero}

// Item stores a single playable entry of the catalog
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Target      string    `json:"target"`
	Args        string    `json:"args,omitempty"`
	Origin      Origin    `json:"origin"`
	Cover       string    `json:"cover,omitempty"`
	Banner      string    `json:"banner,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	Hero        string    `json:"hero,omitempty"`
	LastPlayed  time.Time `json:"lastPlayed,omitempty"`
	InstalledAt time.Time `json:"installedAt,omitempty"`
}

// Artwork returns the reference stored for role.
func (i *Item) Artwork(role Role) string {
	switch role {
	case RoleCover:
		return i.Cover
	case RoleBanner:
		return i.Banner
	case RoleLogo:
		return i.Logo
	case RoleHero:
		return i.Hero
	}
	return ""
}

// SetArtwork stores ref for role. Unknown roles are ignored.
func (i *Item) SetArtwork(role Role, ref string) {
	switch role {
	case RoleCover:
		i.Cover = ref
	case RoleBanner:
		i.Banner = ref
	case RoleLogo:
		i.Logo = ref
	case RoleHero:
		i.Hero = ref
	}
}

// Group is an ordered collection of items with display metadata.
type Group struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Icon     string          `json:"icon,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
	Items    []Item          `json:"items"`
}

// ScanOptions opts a scan into categories that are filtered out by default.
type ScanOptions struct {
	IncludeHidden   bool
	IncludeSoftware bool
	IncludeAdult    bool
}
