// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

// CompositedUpdate is a draw-parameter-only change produced by a visual
// animation: the host locates the matching effect item in its layer set
// and overwrites the parameter in place, skipping raster.
type CompositedUpdate struct {
	Node    NodeID
	Kind    ItemKind // KindBlend or KindTransform
	Opacity float64  // KindBlend
	Offset  Point    // KindTransform
}

// CommitData is the immutable snapshot a content thread hands the host at
// the end of a rendering task. Ownership transfers fully: the content
// thread builds fresh slices and keeps no references into them.
type CommitData struct {
	URL    string
	Height float64

	// Scroll carries the content-side offset; it only overrides the
	// host's own scroll state when ScrollChanged is set (navigation
	// reset, smooth-scroll step). Otherwise the host may be mid-drag and
	// its offset is left alone.
	Scroll        float64
	ScrollChanged bool

	// DisplayList is nil when the frame's pixels are unchanged or the
	// composited fast path applies.
	DisplayList []*DisplayItem

	// CompositedUpdates is the fast-path payload: non-empty only when the
	// frame skipped paint and the committed layer set can be patched in
	// place.
	CompositedUpdates []CompositedUpdate

	// FocusedNode is accessibility/focus metadata for the host chrome.
	FocusedNode NodeID
}
