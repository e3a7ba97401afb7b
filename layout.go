// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

// lineHeight is the height of one text line in CSS pixels, matching the
// surface's fixed-size font.
const lineHeight = 16

// blockLayouter is the built-in layout collaborator: vertical block
// stacking with explicit px sizes from style. It exists to drive the
// pipeline and its tests; a real layout engine plugs in via Layouter.
type blockLayouter struct{}

// Layout assigns absolute document-space rects to every node in f.
func (blockLayouter) Layout(f *Frame, availableWidth float64) {
	if f.root == NoNode {
		return
	}
	layoutNode(f, f.root, 0, 0, availableWidth)
}

// layoutNode lays out id at (x, y) and returns the vertical space it
// consumed. Children stack below one another inside their parent's
// content box.
func layoutNode(f *Frame, id NodeID, x, y, availableWidth float64) float64 {
	n := f.arena.get(id)
	if n == nil {
		return 0
	}
	w := styleFloat(n.computed, "width", availableWidth)
	if x2, ok := n.computed["left"]; ok {
		v, _, _ := parseScalar(x2)
		x = v
	}
	if y2, ok := n.computed["top"]; ok {
		v, _, _ := parseScalar(y2)
		y = v
	}

	childY := y
	if n.text != "" {
		childY += lineHeight
	}
	for _, c := range n.children {
		childY += layoutNode(f, c, x, childY, w)
	}

	h := childY - y
	if hs, ok := n.computed["height"]; ok {
		v, _, ok := parseScalar(hs)
		if ok {
			h = v
		}
	}
	n.layoutRect = MakeRect(x, y, w, h)
	return h
}

// contentHeight returns the document height after layout, used for scroll
// clamping and the commit snapshot.
func (f *Frame) contentHeight() float64 {
	n := f.arena.get(f.root)
	if n == nil {
		return 0
	}
	return n.layoutRect.Height()
}
