// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

// NodeID indexes a node inside its frame's node arena. The display list,
// the animation registry and script bindings all refer to nodes by ID, so
// no object graph cycles exist between DOM, layout and animation state.
type NodeID int

// NoNode marks the absence of a node reference.
const NoNode NodeID = -1

// node is one element of a frame's document tree. DOM construction proper
// is out of scope; the arena holds just enough structure to drive style,
// layout, paint and event dispatch.
type node struct {
	parent   NodeID
	children []NodeID
	tag      string
	text     string

	// specified is the author style, mutated by scripts and navigation.
	// computed is the output of the last style recompute; prevComputed is
	// the generation before that, kept for transition trigger detection.
	specified    map[string]string
	computed     map[string]string
	prevComputed map[string]string

	// layoutRect is the absolute document-space rect assigned by layout.
	layoutRect Rect

	// handlers maps event types to script function names dispatched in the
	// owning frame's realm.
	handlers map[string]string
}

// nodeArena owns every node of one frame. Nodes are never freed
// individually; the arena is dropped wholesale on navigation.
type nodeArena struct {
	nodes []node
}

// alloc appends a node under parent and returns its ID.
func (a *nodeArena) alloc(parent NodeID, tag string) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, node{
		parent:    parent,
		tag:       tag,
		specified: map[string]string{},
		computed:  map[string]string{},
	})
	if parent != NoNode {
		p := &a.nodes[parent]
		p.children = append(p.children, id)
	}
	return id
}

// get returns the node for id, or nil if the ID is out of range.
func (a *nodeArena) get(id NodeID) *node {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return &a.nodes[id]
}

// len returns the number of allocated nodes.
func (a *nodeArena) len() int { return len(a.nodes) }
