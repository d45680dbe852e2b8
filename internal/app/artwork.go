package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/transcode"
)

// Artwork is a servable image file.
type Artwork struct {
	Path        string
	ContentType string
}

// Artwork resolves raw and returns it at width×height. Zero dimensions serve
// the resolved file as is. The only error is domain.ErrNotFound, when not
// even a template image exists.
func (a *App) Artwork(ctx context.Context, raw string, width, height int) (Artwork, error) {
	resolved, err := a.resolver.Resolve(raw, width)
	if err != nil {
		return Artwork{}, err
	}

	path, err := a.cache.GetOrCreate(ctx, resolved, width, height)
	if err != nil {
		return Artwork{}, err
	}

	return Artwork{Path: path, ContentType: contentType(path)}, nil
}

// ItemArtwork is Artwork for the reference stored under role of item id.
func (a *App) ItemArtwork(ctx context.Context, id string, role domain.Role, width, height int) (Artwork, error) {
	item, err := a.catalogService.Find(ctx, id)
	if err != nil {
		return Artwork{}, err
	}
	return a.Artwork(ctx, item.Artwork(role), width, height)
}

// NormalizeArtwork renders every artwork reference of item id at its role's
// standard size into the item's asset directory and points the record at the
// result. Registry application logos are rendered as icons.
func (a *App) NormalizeArtwork(ctx context.Context, id string) (int, error) {
	item, err := a.catalogService.Find(ctx, id)
	if err != nil {
		return 0, err
	}

	normalized := 0
	for _, role := range domain.ArtworkRoles {
		ref := item.Artwork(role)
		if ref == "" {
			continue
		}

		specRole := role
		if role == domain.RoleLogo && item.Origin == domain.OriginApps {
			specRole = domain.RoleIcon
		}
		spec, ok := transcode.ForRole(specRole)
		if !ok {
			continue
		}

		resolved, err := a.resolver.Resolve(ref, spec.Width)
		if err != nil || filepath.Dir(resolved) == a.paths.TemplatesDir {
			a.log.Debug().Str("id", id).Str("role", string(role)).Msg("Artwork source missing, skipped")
			continue
		}

		ext := transcode.OutputExt(resolved)
		if spec.ScaleAnimation && filepath.Ext(resolved) == ".gif" {
			ext = ".gif"
		}
		dst := a.assets.Path(id, string(role)+".normalized"+ext)
		if err := a.transcoder.Transcode(ctx, resolved, dst, spec); err != nil {
			a.log.Warn().Err(err).Str("id", id).Str("role", string(role)).Msg("Failed to normalize artwork")
			continue
		}

		if err := a.catalogService.SetArtwork(ctx, id, role, dst); err != nil {
			return normalized, errors.Wrap(err, "update artwork reference")
		}
		normalized++
	}

	return normalized, nil
}

// contentType sniffs the file header. Cache entries may carry an extension
// that does not match their bytes when an animation was passed through.
func contentType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:n])
}
