// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"image"
	"image/color"
	"math"
)

// Point is a 2D position or offset in CSS pixels.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// IsZero reports whether both coordinates are exactly zero.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Rect is an axis-aligned rectangle in CSS pixels. Coordinates stay in
// double precision through the whole pipeline; truncation to device pixels
// happens only in Round, at final surface-rect construction.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// MakeRect builds a rect from an origin and a size.
func MakeRect(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Empty reports whether r encloses no area.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Intersects reports whether r and s share any area.
func (r Rect) Intersects(s Rect) bool {
	if r.Empty() || s.Empty() {
		return false
	}
	return r.Left < s.Right && s.Left < r.Right &&
		r.Top < s.Bottom && s.Top < r.Bottom
}

// Union returns the smallest rect containing both r and s. An empty rect
// acts as the identity so unions can be folded from a zero value.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		Left:   math.Min(r.Left, s.Left),
		Top:    math.Min(r.Top, s.Top),
		Right:  math.Max(r.Right, s.Right),
		Bottom: math.Max(r.Bottom, s.Bottom),
	}
}

// Translate returns r shifted by off.
func (r Rect) Translate(off Point) Rect {
	return Rect{r.Left + off.X, r.Top + off.Y, r.Right + off.X, r.Bottom + off.Y}
}

// Round converts r to integer device pixels. This is the single truncation
// point of the pipeline.
func (r Rect) Round() image.Rectangle {
	return image.Rect(int(r.Left), int(r.Top), int(math.Ceil(r.Right)), int(math.Ceil(r.Bottom)))
}

// ItemKind identifies the variant of a DisplayItem. The set of visual
// effects is closed and known at design time, so dispatch is a switch on
// the kind rather than an interface method set.
type ItemKind uint8

const (
	KindDrawRect  ItemKind = iota // leaf: filled rectangle
	KindDrawLine                  // leaf: stroked line
	KindDrawText                  // leaf: text run
	KindBlend                     // effect: opacity group
	KindTransform                 // effect: 2D translation
	KindClip                      // effect: rectangular clip
)

// String returns the kind name for logs and dumps.
func (k ItemKind) String() string {
	switch k {
	case KindDrawRect:
		return "drawRect"
	case KindDrawLine:
		return "drawLine"
	case KindDrawText:
		return "drawText"
	case KindBlend:
		return "blend"
	case KindTransform:
		return "transform"
	case KindClip:
		return "clip"
	default:
		return "unknown"
	}
}

// DisplayItem is one node of the display list: either a leaf paint
// operation or a nested visual-effect scope wrapping child items.
//
// Items are immutable after paint with one exception: the host thread may
// overwrite Opacity or Offset in place through a composited-property update
// (see CompositedLayer.ApplyUpdate), which changes draw-time parameters
// without invalidating cached raster output.
type DisplayItem struct {
	Kind   ItemKind
	Bounds Rect   // local bounds, before ancestor effects
	Node   NodeID // originating DOM node, NoNode for synthetic items
	Cmds   []*DisplayItem

	Opacity   float64 // Blend
	Offset    Point   // Transform
	Color     color.RGBA
	Text      string  // DrawText
	Thickness float64 // DrawLine
}

// NewDrawRect builds a filled-rectangle leaf.
func NewDrawRect(node NodeID, bounds Rect, c color.RGBA) *DisplayItem {
	return &DisplayItem{Kind: KindDrawRect, Node: node, Bounds: bounds, Color: c}
}

// NewDrawLine builds a stroked-line leaf from the top-left to the
// bottom-right corner of bounds.
func NewDrawLine(node NodeID, bounds Rect, c color.RGBA, thickness float64) *DisplayItem {
	return &DisplayItem{Kind: KindDrawLine, Node: node, Bounds: bounds, Color: c, Thickness: thickness}
}

// NewDrawText builds a text-run leaf anchored at the top-left of bounds.
func NewDrawText(node NodeID, bounds Rect, text string, c color.RGBA) *DisplayItem {
	return &DisplayItem{Kind: KindDrawText, Node: node, Bounds: bounds, Text: text, Color: c}
}

// NewBlend wraps cmds in an opacity group.
func NewBlend(node NodeID, opacity float64, cmds []*DisplayItem) *DisplayItem {
	return &DisplayItem{Kind: KindBlend, Node: node, Opacity: opacity, Cmds: cmds, Bounds: unionBounds(cmds)}
}

// NewTransform wraps cmds in a 2D translation.
func NewTransform(node NodeID, offset Point, cmds []*DisplayItem) *DisplayItem {
	return &DisplayItem{Kind: KindTransform, Node: node, Offset: offset, Cmds: cmds, Bounds: unionBounds(cmds)}
}

// NewClip wraps cmds in a rectangular clip.
func NewClip(node NodeID, clip Rect, cmds []*DisplayItem) *DisplayItem {
	return &DisplayItem{Kind: KindClip, Node: node, Bounds: clip, Cmds: cmds}
}

func unionBounds(cmds []*DisplayItem) Rect {
	var u Rect
	for _, c := range cmds {
		u = u.Union(c.EffectBounds())
	}
	return u
}

// EffectBounds returns the item's bounds with its own effect applied, i.e.
// the area the item occupies in its parent's coordinate space.
func (it *DisplayItem) EffectBounds() Rect {
	if it.Kind == KindTransform {
		return it.Bounds.Translate(it.Offset)
	}
	return it.Bounds
}

// IsLeaf reports whether the item is a paint operation rather than an
// effect scope.
func (it *DisplayItem) IsLeaf() bool {
	switch it.Kind {
	case KindDrawRect, KindDrawLine, KindDrawText:
		return true
	}
	return false
}

// NoOp reports whether the effect changes nothing: full opacity for a
// blend, a zero offset for a transform. Leaves and clips are never no-ops.
func (it *DisplayItem) NoOp() bool {
	switch it.Kind {
	case KindBlend:
		return it.Opacity >= 1
	case KindTransform:
		return it.Offset.IsZero()
	}
	return false
}

// NeedsCompositing reports whether the item requires its own cached raster
// surface: any non-no-op blend or transform, regardless of whether it is
// currently animating.
func (it *DisplayItem) NeedsCompositing() bool {
	switch it.Kind {
	case KindBlend, KindTransform:
		return !it.NoOp()
	}
	return false
}

// MapToParent converts a rect in the item's inner coordinate space to the
// parent's space.
func (it *DisplayItem) MapToParent(r Rect) Rect {
	if it.Kind == KindTransform {
		return r.Translate(it.Offset)
	}
	return r
}
