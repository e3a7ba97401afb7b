// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// DumpDisplayList renders a display list as an indented tree for debug
// logs and test failure output.
func DumpDisplayList(items []*DisplayItem) string {
	tree := treeprint.New()
	tree.SetValue("display list")
	var add func(branch treeprint.Tree, items []*DisplayItem)
	add = func(branch treeprint.Tree, items []*DisplayItem) {
		for _, it := range items {
			label := itemLabel(it)
			if len(it.Cmds) == 0 {
				branch.AddNode(label)
				continue
			}
			add(branch.AddBranch(label), it.Cmds)
		}
	}
	add(tree, items)
	return tree.String()
}

// DumpLayers renders the compositor's layer partition: each layer with its
// composited-ancestor signature and member chunks.
func (c *compositor) DumpLayers() string {
	tree := treeprint.New()
	tree.SetValue("composited layers")
	for i, l := range c.layers {
		label := fmt.Sprintf("layer %d (ancestorIndex=%d", i, l.ancestorIndex)
		if l.overlapSeed {
			label += ", overlap"
		}
		if l.direct {
			label += ", direct"
		}
		label += ")"
		branch := tree.AddBranch(label)
		if l.ancestor != nil {
			branch.AddNode("ancestor: " + itemLabel(l.ancestor))
		}
		for j := range l.chunks {
			branch.AddNode(itemLabel(l.chunks[j].Item))
		}
	}
	return tree.String()
}

// itemLabel summarizes one display item for dumps.
func itemLabel(it *DisplayItem) string {
	b := it.Bounds
	switch it.Kind {
	case KindBlend:
		return fmt.Sprintf("blend(opacity=%g, node=%d)", it.Opacity, it.Node)
	case KindTransform:
		return fmt.Sprintf("transform(%g,%g, node=%d)", it.Offset.X, it.Offset.Y, it.Node)
	case KindClip:
		return fmt.Sprintf("clip(%g,%g,%g,%g)", b.Left, b.Top, b.Right, b.Bottom)
	case KindDrawText:
		return fmt.Sprintf("text(%q, node=%d)", it.Text, it.Node)
	default:
		return fmt.Sprintf("%s(%g,%g,%g,%g, node=%d)", it.Kind, b.Left, b.Top, b.Right, b.Bottom, it.Node)
	}
}
