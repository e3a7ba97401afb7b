// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrNoSurface reports raster-surface allocation failure. The affected
// layer degrades to direct drawing; it is never fatal.
var ErrNoSurface = errors.New("kestrel: surface allocation failed")

// maxSurfacePixels caps a single surface allocation. A layer whose bounds
// exceed it falls back to uncached drawing instead of exhausting memory.
const maxSurfacePixels = 64 << 20

// Surface is a CPU raster target: an RGBA pixmap with the handful of
// drawing operations the display list needs.
type Surface struct {
	img *image.RGBA
}

// NewSurface allocates a w-by-h surface.
func NewSurface(w, h int) (*Surface, error) {
	if w <= 0 || h <= 0 || w*h > maxSurfacePixels {
		return nil, ErrNoSurface
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
}

// Image exposes the backing pixmap for display-surface hand-off and tests.
func (s *Surface) Image() *image.RGBA { return s.img }

// Size returns the surface dimensions in device pixels.
func (s *Surface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	for i := range s.img.Pix {
		s.img.Pix[i] = 0
	}
}

// Fill floods the surface with a solid color.
func (s *Surface) Fill(c color.RGBA) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// clipDst returns the drawing target restricted to clip.
func (s *Surface) clipDst(clip image.Rectangle) draw.Image {
	if clip == s.img.Bounds() {
		return s.img
	}
	return s.img.SubImage(clip.Intersect(s.img.Bounds())).(*image.RGBA)
}

// FillRect fills r with c scaled by alpha, restricted to clip.
func (s *Surface) FillRect(r image.Rectangle, c color.RGBA, alpha float64, clip image.Rectangle) {
	draw.Draw(s.clipDst(clip), r, image.NewUniform(applyAlpha(c, alpha)), image.Point{}, draw.Over)
}

// StrokeLine draws a straight line from p0 to p1 with the given thickness.
// Lines in the display list are axis-aligned or diagonal separators; a
// simple DDA is enough.
func (s *Surface) StrokeLine(p0, p1 image.Point, c color.RGBA, thickness int, clip image.Rectangle) {
	if thickness < 1 {
		thickness = 1
	}
	dst := s.clipDst(clip)
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		steps = 1
	}
	src := image.NewUniform(c)
	for i := 0; i <= steps; i++ {
		x := p0.X + dx*i/steps
		y := p0.Y + dy*i/steps
		dot := image.Rect(x, y, x+thickness, y+thickness)
		draw.Draw(dst, dot, src, image.Point{}, draw.Over)
	}
}

// DrawText renders one line of text with the surface's fixed-size font,
// anchored at the top-left of at.
func (s *Surface) DrawText(at image.Point, text string, c color.RGBA, alpha float64, clip image.Rectangle) {
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  s.clipDst(clip),
		Src:  image.NewUniform(applyAlpha(c, alpha)),
		Face: face,
		Dot:  fixed.P(at.X, at.Y+face.Ascent),
	}
	d.DrawString(text)
}

// Blit composites src onto s at the given position with a uniform alpha,
// restricted to clip. Alpha one is a plain Over blit; anything below uses
// a uniform mask, which is how an opacity group reaches the final target.
func (s *Surface) Blit(src *Surface, at image.Point, alpha float64, clip image.Rectangle) {
	dst := s.clipDst(clip)
	r := src.img.Bounds().Add(at.Sub(src.img.Bounds().Min))
	if alpha >= 1 {
		draw.Draw(dst, r, src.img, src.img.Bounds().Min, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: clampAlphaByte(alpha)})
	draw.DrawMask(dst, r, src.img, src.img.Bounds().Min, mask, image.Point{}, draw.Over)
}

// applyAlpha scales a premultiplied RGBA color by alpha, clamping to the
// valid range at this final conversion only; interpolation upstream stays
// unclamped.
func applyAlpha(c color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 {
		return c
	}
	a := float64(clampAlphaByte(alpha)) / 255
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}

// clampAlphaByte converts an unclamped opacity to an 8-bit alpha.
func clampAlphaByte(alpha float64) uint8 {
	if alpha <= 0 {
		return 0
	}
	if alpha >= 1 {
		return 0xff
	}
	return uint8(alpha * 255)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
