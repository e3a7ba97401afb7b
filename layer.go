// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"hash/fnv"
	"image"
	"log/slog"
	"math"
)

// CompositedLayer is a cacheable raster unit: an ordered run of paint
// chunks sharing one composited-ancestor signature, rastered into a
// retained surface and recombined at draw time under the deferred
// composited effects.
type CompositedLayer struct {
	chunks        []PaintChunk
	ancestorIndex int          // composited-ancestor index shared by all chunks, -1 if none
	ancestor      *DisplayItem // the composited ancestor item itself, nil if none
	overlapSeed   bool         // layer created for an overlap-reason chunk

	surface *Surface
	bounds  Rect // union of member chunks' composited bounds

	contentSig   uint64 // raster-content signature of the last raster
	rasterNeeded bool
	cacheHit     bool // observable: last Raster call was skipped
	direct       bool // surface allocation failed; draw uncached
}

// newCompositedLayer seeds a layer with its first chunk.
func newCompositedLayer(c PaintChunk) *CompositedLayer {
	return &CompositedLayer{
		chunks:        []PaintChunk{c},
		ancestorIndex: c.compositedAncestorIndex(),
		ancestor:      c.compositedAncestor(),
		overlapSeed:   c.overlap,
		rasterNeeded:  true,
	}
}

// canMerge reports whether chunk may join the layer: identical
// composited-ancestor signature (same index counted from the stack's end
// and the same ancestor item), and neither side forced apart by the
// overlap rule.
func (l *CompositedLayer) canMerge(c PaintChunk) bool {
	if c.overlap || l.overlapSeed {
		return false
	}
	return c.compositedAncestorIndex() == l.ancestorIndex && c.compositedAncestor() == l.ancestor
}

// add appends a chunk and invalidates the cached raster.
func (l *CompositedLayer) add(c PaintChunk) {
	l.chunks = append(l.chunks, c)
	l.rasterNeeded = true
}

// absoluteBounds returns the union of the member chunks' absolute bounds,
// used to reject merges across paint-order gaps.
func (l *CompositedLayer) absoluteBounds() Rect {
	var u Rect
	for i := range l.chunks {
		u = u.Union(l.chunks[i].absoluteBounds())
	}
	return u
}

// compositedBounds returns the union of the member chunks' composited
// bounds: the rect the layer's surface covers in its parent space.
func (l *CompositedLayer) compositedBounds() Rect {
	var u Rect
	for i := range l.chunks {
		u = u.Union(l.chunks[i].compositedBounds())
	}
	return u
}

// signature hashes the raster-relevant content of the layer: chunk
// geometry, leaf parameters and baked-in inner effects. Two layers with
// equal signatures raster to identical pixels, so a matching signature is
// a cache hit.
func (l *CompositedLayer) signature() uint64 {
	h := fnv.New64a()
	hashRect := func(r Rect) {
		for _, v := range [4]float64{r.Left, r.Top, r.Right, r.Bottom} {
			bits := math.Float64bits(v)
			var b [8]byte
			for i := range b {
				b[i] = byte(bits >> (8 * i))
			}
			h.Write(b[:])
		}
	}
	hashItem := func(it *DisplayItem) {
		h.Write([]byte{byte(it.Kind)})
		hashRect(it.Bounds)
		h.Write([]byte{it.Color.R, it.Color.G, it.Color.B, it.Color.A})
		h.Write([]byte(it.Text))
		hashRect(MakeRect(it.Offset.X, it.Offset.Y, it.Opacity, it.Thickness))
	}
	for i := range l.chunks {
		c := &l.chunks[i]
		hashItem(c.Item)
		for _, a := range c.innerAncestors() {
			hashItem(a)
		}
	}
	return h.Sum64()
}

// Raster draws the layer's chunks into its cached surface, skipping work
// when the content signature is unchanged. Only non-composited inner
// effects are baked in; the composited ancestor chain is deferred to Draw.
// Allocation failure flips the layer to direct drawing.
func (l *CompositedLayer) Raster(logger *slog.Logger) {
	if l.direct {
		l.cacheHit = false
		return
	}
	l.bounds = l.compositedBounds()
	if l.bounds.Empty() {
		l.cacheHit = false
		l.rasterNeeded = false
		return
	}

	sig := l.signature()
	if !l.rasterNeeded && l.surface != nil && sig == l.contentSig {
		l.cacheHit = true
		return
	}
	l.cacheHit = false

	device := l.bounds.Round()
	w, h := device.Dx(), device.Dy()
	if l.surface != nil {
		if sw, sh := l.surface.Size(); sw != w || sh != h {
			l.surface = nil
		}
	}
	if l.surface == nil {
		s, err := NewSurface(w, h)
		if err != nil {
			logger.Warn("layer surface allocation failed, falling back to direct drawing",
				"width", w, "height", h, "error", err)
			l.direct = true
			return
		}
		l.surface = s
	}

	l.surface.Clear()
	origin := Point{X: -l.bounds.Left, Y: -l.bounds.Top}
	full := l.surface.img.Bounds()
	for i := range l.chunks {
		executeChunk(l.surface, &l.chunks[i], l.chunks[i].innerAncestors(), origin, 1.0, full)
	}
	l.contentSig = sig
	l.rasterNeeded = false
}

// executeChunk runs one leaf paint operation wrapped by the given ancestor
// effects, accumulating translation, clip and opacity on the way down.
func executeChunk(dst *Surface, c *PaintChunk, effects []*DisplayItem, origin Point, baseAlpha float64, clip image.Rectangle) {
	offset := origin
	alpha := baseAlpha
	for _, e := range effects {
		switch e.Kind {
		case KindTransform:
			offset = offset.Add(e.Offset)
		case KindBlend:
			alpha *= e.Opacity
		case KindClip:
			clip = clip.Intersect(e.Bounds.Translate(offset).Round())
		}
	}
	executeLeaf(dst, c.Item, offset, alpha, clip)
}

// executeLeaf dispatches one paint operation onto the surface.
func executeLeaf(dst *Surface, it *DisplayItem, offset Point, alpha float64, clip image.Rectangle) {
	r := it.Bounds.Translate(offset).Round()
	switch it.Kind {
	case KindDrawRect:
		dst.FillRect(r, it.Color, alpha, clip)
	case KindDrawLine:
		dst.StrokeLine(r.Min, r.Max, it.Color, int(it.Thickness), clip)
	case KindDrawText:
		dst.DrawText(r.Min, it.Text, it.Color, alpha, clip)
	}
}

// Draw composites the layer onto target: translate by the scroll offset,
// apply the deferred composited effects (transform offsets move the blit,
// blend opacities become a uniform-alpha mask, clips restrict the target
// region), then blit the cached surface. A direct-fallback layer executes
// its chunks straight into the target instead.
func (l *CompositedLayer) Draw(target *Surface, scroll float64) {
	if l.bounds.Empty() && !l.direct {
		return
	}
	offset := Point{Y: -scroll}
	alpha := 1.0
	clip := target.img.Bounds()
	for _, e := range l.outerEffects() {
		switch e.Kind {
		case KindTransform:
			offset = offset.Add(e.Offset)
		case KindBlend:
			alpha *= e.Opacity
		case KindClip:
			clip = clip.Intersect(e.Bounds.Translate(offset).Round())
		}
	}

	if l.direct {
		for i := range l.chunks {
			c := &l.chunks[i]
			executeChunk(target, c, c.innerAncestors(), offset, alpha, clip)
		}
		return
	}

	at := l.bounds.Translate(offset).Round().Min
	target.Blit(l.surface, at, alpha, clip)
}

// outerEffects returns the deferred ancestor chain: the composited
// ancestor and everything above it. All member chunks share this prefix,
// so the first chunk's stack is authoritative.
func (l *CompositedLayer) outerEffects() []*DisplayItem {
	if l.ancestor == nil || len(l.chunks) == 0 {
		return nil
	}
	anc := l.chunks[0].Ancestors
	end := len(anc) - l.ancestorIndex
	if end < 0 || end > len(anc) {
		return nil
	}
	return anc[:end]
}

// CacheHit reports whether the last Raster call reused the cached surface.
func (l *CompositedLayer) CacheHit() bool { return l.cacheHit }

// compositor owns the host-side layer list and recombines committed
// display lists into it.
type compositor struct {
	layers []*CompositedLayer
	logger *slog.Logger
}

// Composite partitions the display list into composited layers. Each chunk
// joins the most recently created compatible layer, searching the layer
// list in reverse creation order; the scan stops at the first layer whose
// absolute bounds the chunk intersects, since merging past it would let
// that layer's surface draw over pixels painted later. Retained surfaces
// from the previous partition are adopted position-by-position when the
// signature still matches, so unchanged layers stay cache-warm.
func (c *compositor) Composite(displayList []*DisplayItem) {
	chunks := FlattenChunks(displayList)
	markOverlaps(chunks)

	var layers []*CompositedLayer
	for _, chunk := range chunks {
		abs := chunk.absoluteBounds()
		merged := false
		for i := len(layers) - 1; i >= 0; i-- {
			if layers[i].canMerge(chunk) {
				layers[i].add(chunk)
				merged = true
				break
			}
			if abs.Intersects(layers[i].absoluteBounds()) {
				// A paint-order gap: the chunk overlaps this layer, so it
				// cannot merge into anything below it.
				break
			}
		}
		if !merged {
			layers = append(layers, newCompositedLayer(chunk))
		}
	}

	// Adopt previous surfaces where the new partition lines up.
	for i, l := range layers {
		if i >= len(c.layers) {
			break
		}
		prev := c.layers[i]
		if prev.surface == nil || prev.direct {
			continue
		}
		if prev.ancestorIndex != l.ancestorIndex {
			continue
		}
		l.surface = prev.surface
		l.contentSig = prev.contentSig
		l.bounds = prev.bounds
		l.rasterNeeded = false
	}
	c.layers = layers
}

// Raster rasters every layer, returning how many were cache hits.
func (c *compositor) Raster() (hits int) {
	for _, l := range c.layers {
		l.Raster(c.logger)
		if l.cacheHit {
			hits++
		}
	}
	return hits
}

// Draw paints all layers onto target in creation order.
func (c *compositor) Draw(target *Surface, scroll float64) {
	for _, l := range c.layers {
		l.Draw(target, scroll)
	}
}

// ApplyUpdate overwrites the draw-time parameter of the effect item tagged
// with the update's node, leaving cached raster output untouched. Host
// thread only. It reports whether any effect matched; a miss means the
// partition is stale and the caller should fall back to a full pipeline
// pass.
func (c *compositor) ApplyUpdate(u CompositedUpdate) bool {
	applied := false
	seen := map[*DisplayItem]bool{}
	for _, l := range c.layers {
		for i := range l.chunks {
			for _, a := range l.chunks[i].Ancestors {
				if a.Node != u.Node || a.Kind != u.Kind || seen[a] {
					continue
				}
				seen[a] = true
				switch u.Kind {
				case KindBlend:
					a.Opacity = u.Opacity
				case KindTransform:
					a.Offset = u.Offset
				}
				applied = true
			}
		}
	}
	return applied
}

// LayerCount returns the number of live composited layers.
func (c *compositor) LayerCount() int { return len(c.layers) }
