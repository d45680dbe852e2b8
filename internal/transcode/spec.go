package transcode

import (
	"path/filepath"
	"strings"

	"github.com/varoOP/playshelf/internal/domain"
)

// Fit decides how a source is mapped onto the target box.
type Fit int

const (
	// FitFill scales to cover the box and crops the overflow, centered.
	FitFill Fit = iota
	// FitContain scales proportionally to fit inside the box. A zero
	// dimension is derived from the other one.
	FitContain
	// FitCanvas fits inside the box and centers the result on a transparent
	// canvas of exactly the box size.
	FitCanvas
)

func (f Fit) String() string {
	switch f {
	case FitFill:
		return "fill"
	case FitContain:
		return "contain"
	case FitCanvas:
		return "canvas"
	}
	return "unknown"
}

type Spec struct {
	Width  int
	Height int
	Fit    Fit
	// Trim removes fully transparent borders before fitting.
	Trim bool
	// ScaleAnimation re-encodes animated GIFs bounded to the box instead of
	// copying them.
	ScaleAnimation bool
}

var roleSpecs = map[domain.Role]Spec{
	domain.RoleCover:  {Width: 600, Height: 900, Fit: FitFill},
	domain.RoleBanner: {Width: 920, Height: 430, Fit: FitFill},
	domain.RoleIcon:   {Width: 256, Height: 256, Fit: FitCanvas},
	domain.RoleLogo:   {Width: 800, Height: 310, Fit: FitCanvas, Trim: true, ScaleAnimation: true},
}

// ForRole returns the standard output spec of an artwork role.
func ForRole(role domain.Role) (Spec, bool) {
	s, ok := roleSpecs[role]
	return s, ok
}

// ForSize is the spec of an ad hoc resize request: crop to fill when both
// dimensions are given, proportional otherwise.
func ForSize(width, height int) Spec {
	if width > 0 && height > 0 {
		return Spec{Width: width, Height: height, Fit: FitFill}
	}
	return Spec{Width: width, Height: height, Fit: FitContain}
}

// OutputExt is the extension a transcoded copy of src is written with.
func OutputExt(src string) string {
	switch strings.ToLower(filepath.Ext(src)) {
	case ".jpg", ".jpeg":
		return ".jpg"
	case ".gif":
		return ".gif"
	}
	return ".png"
}
