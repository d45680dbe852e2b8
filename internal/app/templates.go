package app

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/varoOP/playshelf/internal/fileutil"
	"github.com/varoOP/playshelf/internal/resolver"
)

var (
	templateBackground = color.NRGBA{R: 0x2a, G: 0x2d, B: 0x34, A: 0xff}
	templateFrame      = color.NRGBA{R: 0x3c, G: 0x40, B: 0x4a, A: 0xff}
)

// EnsureTemplates writes the built-in fallback images that are missing from
// dir. Existing files are left alone so they can be customized.
func EnsureTemplates(dir string) error {
	templates := []struct {
		name          string
		width, height int
	}{
		{resolver.WideTemplate, 920, 430},
		{resolver.NarrowTemplate, 600, 900},
	}

	for _, t := range templates {
		path := filepath.Join(dir, t.name)
		if _, err := os.Stat(path); err == nil {
			continue
		}

		img := placeholder(t.width, t.height)
		err := fileutil.WriteAtomic(path, func(w io.Writer) error {
			return png.Encode(w, img)
		})
		if err != nil {
			return errors.Wrapf(err, "write template %s", t.name)
		}
	}
	return nil
}

// placeholder is a flat panel with a thin inset frame.
func placeholder(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	inset := min(w, h) / 20
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := templateBackground
			onFrame := (x == inset || x == w-inset-1) && y >= inset && y < h-inset ||
				(y == inset || y == h-inset-1) && x >= inset && x < w-inset
			if onFrame {
				c = templateFrame
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
