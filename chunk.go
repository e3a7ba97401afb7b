// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

// PaintChunk pairs one leaf paint operation with the stack of ancestor
// visual-effect scopes enclosing it when the display list was flattened
// (outermost first). Chunks are ephemeral: recomputed every compositing
// pass.
type PaintChunk struct {
	Item      *DisplayItem
	Ancestors []*DisplayItem

	// overlap forces the chunk into its own composited layer because its
	// absolute bounds intersect a chunk that needs compositing, preserving
	// paint order against that chunk's cached surface.
	overlap bool
}

// FlattenChunks walks the display list and returns its leaves in paint
// order, each paired with a copy of the ancestor-effect stack above it.
func FlattenChunks(items []*DisplayItem) []PaintChunk {
	var out []PaintChunk
	var stack []*DisplayItem
	var walk func(items []*DisplayItem)
	walk = func(items []*DisplayItem) {
		for _, it := range items {
			if it.IsLeaf() {
				ancestors := make([]*DisplayItem, len(stack))
				copy(ancestors, stack)
				out = append(out, PaintChunk{Item: it, Ancestors: ancestors})
				continue
			}
			stack = append(stack, it)
			walk(it.Cmds)
			stack = stack[:len(stack)-1]
		}
	}
	walk(items)
	return out
}

// compositedAncestorIndex returns the position, counted from the stack's
// end, of the nearest ancestor effect that requires compositing; -1 when
// none does. 0 is the innermost ancestor.
func (c *PaintChunk) compositedAncestorIndex() int {
	for i := len(c.Ancestors) - 1; i >= 0; i-- {
		if c.Ancestors[i].NeedsCompositing() {
			return len(c.Ancestors) - 1 - i
		}
	}
	return -1
}

// compositedAncestor returns the effect item at compositedAncestorIndex,
// or nil.
func (c *PaintChunk) compositedAncestor() *DisplayItem {
	idx := c.compositedAncestorIndex()
	if idx < 0 {
		return nil
	}
	return c.Ancestors[len(c.Ancestors)-1-idx]
}

// absoluteBounds maps the leaf's bounds to document coordinates through
// every non-composited ancestor effect. Composited ancestors apply their
// parameters at draw time, so they are left out of the static bounds.
func (c *PaintChunk) absoluteBounds() Rect {
	r := c.Item.Bounds
	for i := len(c.Ancestors) - 1; i >= 0; i-- {
		a := c.Ancestors[i]
		if a.NeedsCompositing() {
			continue
		}
		r = a.MapToParent(r)
	}
	return r
}

// compositedBounds maps the leaf's bounds through ancestor effects up to
// but excluding the first compositing-requiring one. This is the rect the
// chunk occupies inside its layer's cached surface.
func (c *PaintChunk) compositedBounds() Rect {
	r := c.Item.Bounds
	for i := len(c.Ancestors) - 1; i >= 0; i-- {
		a := c.Ancestors[i]
		if a.NeedsCompositing() {
			break
		}
		r = a.MapToParent(r)
	}
	return r
}

// innerAncestors returns the non-composited ancestors below the composited
// one, outermost first: the effects baked into the layer's raster.
func (c *PaintChunk) innerAncestors() []*DisplayItem {
	start := 0
	for i := len(c.Ancestors) - 1; i >= 0; i-- {
		if c.Ancestors[i].NeedsCompositing() {
			start = i + 1
			break
		}
	}
	return c.Ancestors[start:]
}

// markOverlaps flags chunks whose absolute bounds intersect a chunk that
// needs compositing. The overlapping chunk gets its own layer even though
// it has no transition, so paint order survives the neighbor drawing from
// a cached surface. The test is conservative: any intersection counts.
func markOverlaps(chunks []PaintChunk) {
	var compositedBounds []Rect
	for i := range chunks {
		if chunks[i].compositedAncestorIndex() >= 0 {
			compositedBounds = append(compositedBounds, chunks[i].absoluteBounds())
		}
	}
	if len(compositedBounds) == 0 {
		return
	}
	for i := range chunks {
		if chunks[i].compositedAncestorIndex() >= 0 {
			continue
		}
		abs := chunks[i].absoluteBounds()
		for _, cb := range compositedBounds {
			if abs.Intersects(cb) {
				chunks[i].overlap = true
				break
			}
		}
	}
}
