// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"image/color"
	"strconv"
	"strings"
)

// defaultPainter is the built-in paint collaborator: one background rect
// per styled node, one text run per text node, wrapped in the node's
// visual-effect scopes. Replaceable via Painter.
type defaultPainter struct{}

// Paint builds the frame's display list in document order.
func (defaultPainter) Paint(f *Frame) []*DisplayItem {
	if f.root == NoNode {
		return nil
	}
	return paintNode(f, f.root)
}

// paintNode paints id and its subtree, then wraps the result in the
// node's visual effects: a blend scope when the style declares opacity
// and a transform scope when it declares a translation. The wrappers are
// emitted even at their no-op values so a later composited-property
// update can find the effect item by node.
func paintNode(f *Frame, id NodeID) []*DisplayItem {
	n := f.arena.get(id)
	if n == nil {
		return nil
	}

	var cmds []*DisplayItem
	if bg, ok := n.computed["background-color"]; ok {
		if c, ok := parseColor(bg); ok {
			cmds = append(cmds, NewDrawRect(id, n.layoutRect, c))
		}
	}
	if n.text != "" {
		c := color.RGBA{A: 0xff}
		if fg, ok := n.computed["color"]; ok {
			if parsed, ok := parseColor(fg); ok {
				c = parsed
			}
		}
		textRect := MakeRect(n.layoutRect.Left, n.layoutRect.Top, n.layoutRect.Width(), lineHeight)
		cmds = append(cmds, NewDrawText(id, textRect, n.text, c))
	}
	for _, child := range n.children {
		cmds = append(cmds, paintNode(f, child)...)
	}
	if len(cmds) == 0 {
		return nil
	}

	if t, ok := n.computed["transform"]; ok {
		if off, ok := parseTranslate(t); ok {
			cmds = []*DisplayItem{NewTransform(id, off, cmds)}
		}
	}
	if o, ok := n.computed["opacity"]; ok {
		if alpha, _, ok := parseScalar(o); ok {
			cmds = []*DisplayItem{NewBlend(id, alpha, cmds)}
		}
	}
	return cmds
}

// namedColors covers the palette the built-in painter understands; other
// values use #rrggbb.
var namedColors = map[string]color.RGBA{
	"white":     {0xff, 0xff, 0xff, 0xff},
	"black":     {0x00, 0x00, 0x00, 0xff},
	"red":       {0xff, 0x00, 0x00, 0xff},
	"green":     {0x00, 0x80, 0x00, 0xff},
	"blue":      {0x00, 0x00, 0xff, 0xff},
	"lightblue": {0xad, 0xd8, 0xe6, 0xff},
	"gray":      {0x80, 0x80, 0x80, 0xff},
	"orange":    {0xff, 0xa5, 0x00, 0xff},
	"yellow":    {0xff, 0xff, 0x00, 0xff},
}

// parseColor resolves a named color or #rrggbb value.
func parseColor(v string) (color.RGBA, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	if c, ok := namedColors[v]; ok {
		return c, true
	}
	if len(v) == 7 && v[0] == '#' {
		r, err1 := strconv.ParseUint(v[1:3], 16, 8)
		g, err2 := strconv.ParseUint(v[3:5], 16, 8)
		b, err3 := strconv.ParseUint(v[5:7], 16, 8)
		if err1 == nil && err2 == nil && err3 == nil {
			return color.RGBA{uint8(r), uint8(g), uint8(b), 0xff}, true
		}
	}
	return color.RGBA{}, false
}
