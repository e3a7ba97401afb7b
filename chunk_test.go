// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColor = color.RGBA{0xff, 0x00, 0x00, 0xff}

func TestFlattenChunks(t *testing.T) {
	inner := NewDrawRect(1, MakeRect(0, 0, 10, 10), testColor)
	sibling := NewDrawRect(2, MakeRect(0, 20, 10, 10), testColor)
	tr := NewTransform(3, Point{X: 5}, []*DisplayItem{inner})
	blend := NewBlend(4, 0.5, []*DisplayItem{tr})

	chunks := FlattenChunks([]*DisplayItem{blend, sibling})
	require.Len(t, chunks, 2)

	assert.Same(t, inner, chunks[0].Item)
	require.Len(t, chunks[0].Ancestors, 2)
	assert.Same(t, blend, chunks[0].Ancestors[0], "ancestors are outermost first")
	assert.Same(t, tr, chunks[0].Ancestors[1])

	assert.Same(t, sibling, chunks[1].Item)
	assert.Empty(t, chunks[1].Ancestors)
}

func TestCompositedAncestorIndex(t *testing.T) {
	leaf := NewDrawRect(1, MakeRect(0, 0, 10, 10), testColor)

	// blend(0.5) > transform(+5) > leaf: both composite, the transform is
	// the nearest, at index 0 counted from the stack's end.
	tr := NewTransform(2, Point{X: 5}, []*DisplayItem{leaf})
	blend := NewBlend(3, 0.5, []*DisplayItem{tr})
	chunks := FlattenChunks([]*DisplayItem{blend})
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].compositedAncestorIndex())
	assert.Same(t, tr, chunks[0].compositedAncestor())

	// blend(0.5) > transform(0) > leaf: the inner transform is a no-op, so
	// the blend at index 1 is the composited ancestor.
	tr0 := NewTransform(2, Point{}, []*DisplayItem{leaf})
	blend2 := NewBlend(3, 0.5, []*DisplayItem{tr0})
	chunks = FlattenChunks([]*DisplayItem{blend2})
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].compositedAncestorIndex())
	assert.Same(t, blend2, chunks[0].compositedAncestor())

	// Only no-op ancestors: nothing composites.
	noop := NewBlend(3, 1.0, []*DisplayItem{leaf})
	chunks = FlattenChunks([]*DisplayItem{noop})
	require.Len(t, chunks, 1)
	assert.Equal(t, -1, chunks[0].compositedAncestorIndex())
	assert.Nil(t, chunks[0].compositedAncestor())
}

func TestAbsoluteBounds(t *testing.T) {
	leaf := NewDrawRect(1, MakeRect(0, 0, 10, 10), testColor)

	// Non-composited (zero) transforms contribute nothing; a real transform
	// above translates.
	inner := NewTransform(2, Point{}, []*DisplayItem{leaf})
	outer := NewTransform(3, Point{X: 20, Y: 30}, []*DisplayItem{inner})
	chunks := FlattenChunks([]*DisplayItem{outer})
	require.Len(t, chunks, 1)

	// The outer transform composites, so it is excluded from the static
	// bounds; it repositions at draw time instead.
	assert.Equal(t, MakeRect(0, 0, 10, 10), chunks[0].absoluteBounds())

	// Wrap once more in a non-composited scope above the composited one to
	// show composited ancestors are skipped, not everything above them.
	root := NewBlend(4, 1.0, []*DisplayItem{outer})
	chunks = FlattenChunks([]*DisplayItem{root})
	require.Len(t, chunks, 1)
	assert.Equal(t, MakeRect(0, 0, 10, 10), chunks[0].absoluteBounds())
}

func TestCompositedBoundsStopAtCompositedAncestor(t *testing.T) {
	leaf := NewDrawRect(1, MakeRect(0, 0, 10, 10), testColor)
	inner := NewTransform(2, Point{}, []*DisplayItem{leaf})  // baked in
	comp := NewBlend(3, 0.5, []*DisplayItem{inner})          // composited
	above := NewTransform(4, Point{X: 100}, []*DisplayItem{comp}) // deferred

	chunks := FlattenChunks([]*DisplayItem{above})
	require.Len(t, chunks, 1)
	assert.Equal(t, MakeRect(0, 0, 10, 10), chunks[0].compositedBounds(),
		"bounds inside the layer surface exclude the composited chain")
}

func TestInnerAncestors(t *testing.T) {
	leaf := NewDrawRect(1, MakeRect(0, 0, 10, 10), testColor)
	clip := NewClip(2, MakeRect(0, 0, 5, 5), []*DisplayItem{leaf})
	comp := NewBlend(3, 0.5, []*DisplayItem{clip})
	outer := NewBlend(4, 1.0, []*DisplayItem{comp})

	chunks := FlattenChunks([]*DisplayItem{outer})
	require.Len(t, chunks, 1)
	inner := chunks[0].innerAncestors()
	require.Len(t, inner, 1)
	assert.Same(t, clip, inner[0], "only effects below the composited ancestor bake into the raster")
}

func TestMarkOverlaps(t *testing.T) {
	animated := NewDrawRect(1, MakeRect(0, 0, 100, 100), testColor)
	blend := NewBlend(1, 0.5, []*DisplayItem{animated})
	overlapping := NewDrawRect(2, MakeRect(50, 50, 100, 100), testColor)
	distant := NewDrawRect(3, MakeRect(500, 500, 10, 10), testColor)

	chunks := FlattenChunks([]*DisplayItem{blend, overlapping, distant})
	require.Len(t, chunks, 3)
	markOverlaps(chunks)

	assert.False(t, chunks[0].overlap, "the composited chunk itself is not an overlap chunk")
	assert.True(t, chunks[1].overlap, "intersecting a composited chunk forces a layer")
	assert.False(t, chunks[2].overlap)
}

func TestMarkOverlapsNoComposited(t *testing.T) {
	a := NewDrawRect(1, MakeRect(0, 0, 100, 100), testColor)
	b := NewDrawRect(2, MakeRect(50, 50, 100, 100), testColor)
	chunks := FlattenChunks([]*DisplayItem{a, b})
	markOverlaps(chunks)
	assert.False(t, chunks[0].overlap)
	assert.False(t, chunks[1].overlap, "overlap only matters against composited content")
}
