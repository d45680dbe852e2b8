// Package transcode turns artwork of any supported format into standardized
// raster output.
package transcode

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/fileutil"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

type Service interface {
	// Transcode writes src rendered per spec to dst. A usable file is left at
	// dst even when an error is returned: the original bytes are copied.
	Transcode(ctx context.Context, src, dst string, spec Spec) error
}

type service struct {
	log zerolog.Logger
}

func NewService(log zerolog.Logger) Service {
	return &service{
		log: log.With().Str("module", "transcode").Logger(),
	}
}

func (s *service) Transcode(ctx context.Context, src, dst string, spec Spec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "read %s", src)
	}

	if isAnimated(data) {
		if spec.ScaleAnimation && bytes.HasPrefix(data, gifSignature) {
			err := s.scaleAnimation(data, dst, spec)
			if err == nil {
				return nil
			}
			s.log.Warn().Err(err).Str("src", src).Msg("animation rescale failed, copying original")
		}
		s.log.Trace().Str("src", src).Msg("animated image passed through")
		return s.passthrough(data, dst)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return s.fallback(data, dst, errors.Wrapf(err, "decode %s", src))
	}

	out := render(img, spec)
	if err := fileutil.WriteAtomic(dst, func(w io.Writer) error {
		return encode(w, out, dst)
	}); err != nil {
		return s.fallback(data, dst, errors.Wrapf(err, "encode %s", dst))
	}

	s.log.Trace().
		Str("src", src).
		Str("format", format).
		Str("fit", spec.Fit.String()).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Msg("transcoded")
	return nil
}

func (s *service) passthrough(data []byte, dst string) error {
	return fileutil.WriteAtomic(dst, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// fallback copies the original bytes and still reports cause.
func (s *service) fallback(data []byte, dst string, cause error) error {
	s.log.Warn().Err(cause).Str("dst", dst).Msg("transcode failed, copying original")
	if err := s.passthrough(data, dst); err != nil {
		return errors.Wrapf(err, "copy original after %v", cause)
	}
	return cause
}

func render(img image.Image, spec Spec) image.Image {
	if spec.Trim {
		img = trim(img)
	}

	b := img.Bounds()
	if b.Empty() || (spec.Width <= 0 && spec.Height <= 0) {
		return img
	}

	switch spec.Fit {
	case FitFill:
		if spec.Width <= 0 || spec.Height <= 0 {
			return contain(img, spec.Width, spec.Height)
		}
		return fill(img, spec.Width, spec.Height)
	case FitCanvas:
		return canvas(img, spec.Width, spec.Height)
	default:
		return contain(img, spec.Width, spec.Height)
	}
}

// fill crops the centered region with the target aspect ratio and scales it.
func fill(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	scale := math.Max(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	cw := clamp(int(math.Round(float64(w)/scale)), 1, b.Dx())
	ch := clamp(int(math.Round(float64(h)/scale)), 1, b.Dy())

	x0 := b.Min.X + (b.Dx()-cw)/2
	y0 := b.Min.Y + (b.Dy()-ch)/2
	crop := image.Rect(x0, y0, x0+cw, y0+ch)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

func contain(img image.Image, w, h int) image.Image {
	cw, ch := fitSize(img.Bounds(), w, h)
	dst := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func canvas(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return contain(img, w, h)
	}

	cw, ch := fitSize(img.Bounds(), w, h)
	x0 := (w - cw) / 2
	y0 := (h - ch) / 2

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+cw, y0+ch), img, img.Bounds(), draw.Over, nil)
	return dst
}

// fitSize scales b proportionally into w×h. A zero bound is unconstrained.
func fitSize(b image.Rectangle, w, h int) (int, int) {
	sw, sh := float64(b.Dx()), float64(b.Dy())
	scale := math.Inf(1)
	if w > 0 {
		scale = float64(w) / sw
	}
	if h > 0 {
		scale = math.Min(scale, float64(h)/sh)
	}
	return max(1, int(math.Round(sw*scale))), max(1, int(math.Round(sh*scale)))
}

// trim crops away rows and columns that are fully transparent. A fully
// transparent image is returned unchanged.
func trim(img image.Image) image.Image {
	b := img.Bounds()
	box := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			box = box.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	if box.Empty() || box == b {
		return img
	}

	dst := image.NewNRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Copy(dst, image.Point{}, img, box, draw.Src, nil)
	return dst
}

// scaleAnimation shrinks every frame of a GIF so the animation fits in the
// spec box, using nearest neighbour to keep the palettes intact.
func (s *service) scaleAnimation(data []byte, dst string, spec Spec) error {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "decode animation")
	}

	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if screen.Empty() && len(g.Image) > 0 {
		screen = g.Image[0].Bounds()
	}
	scale := 1.0
	if spec.Width > 0 {
		scale = math.Min(scale, float64(spec.Width)/float64(screen.Dx()))
	}
	if spec.Height > 0 {
		scale = math.Min(scale, float64(spec.Height)/float64(screen.Dy()))
	}
	if scale >= 1 {
		return s.passthrough(data, dst)
	}

	scaled := func(v int) int { return int(math.Round(float64(v) * scale)) }
	for i, frame := range g.Image {
		fb := frame.Bounds()
		r := image.Rect(scaled(fb.Min.X), scaled(fb.Min.Y), max(scaled(fb.Max.X), scaled(fb.Min.X)+1), max(scaled(fb.Max.Y), scaled(fb.Min.Y)+1))
		out := image.NewPaletted(r, frame.Palette)
		draw.NearestNeighbor.Scale(out, r, frame, fb, draw.Src, nil)
		g.Image[i] = out
	}
	g.Config.Width = max(1, scaled(screen.Dx()))
	g.Config.Height = max(1, scaled(screen.Dy()))

	return fileutil.WriteAtomic(dst, func(w io.Writer) error {
		return gif.EncodeAll(w, g)
	})
}

func encode(w io.Writer, img image.Image, dst string) error {
	switch strings.ToLower(filepath.Ext(dst)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: jpegQuality})
	case ".gif":
		return gif.Encode(w, img, nil)
	default:
		return png.Encode(w, img)
	}
}

// flatten composites img over black so transparent pixels encode predictably.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	return dst
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
