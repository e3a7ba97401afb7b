// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

// Document is the content-side facade the out-of-scope parsing collaborator
// would drive: it populates a frame's node arena during Load. All methods
// run on the owning tab's content thread.
type Document struct {
	tab   *Tab
	frame *Frame
}

// Frame returns the handle of the document's frame.
func (d *Document) Frame() FrameHandle { return d.frame.handle }

// AddElement appends an element under parent (NoNode for the root) and
// returns its ID.
func (d *Document) AddElement(parent NodeID, tag string, style map[string]string) NodeID {
	id := d.frame.arena.alloc(parent, tag)
	n := d.frame.arena.get(id)
	for k, v := range style {
		n.specified[k] = v
	}
	if parent == NoNode {
		d.frame.root = id
	}
	return id
}

// SetText sets an element's text content.
func (d *Document) SetText(node NodeID, text string) {
	if n := d.frame.arena.get(node); n != nil {
		n.text = text
	}
}

// SetStyle sets one specified style property.
func (d *Document) SetStyle(node NodeID, prop, value string) {
	if n := d.frame.arena.get(node); n != nil {
		n.specified[prop] = value
	}
}

// OnEvent registers a realm function as the handler for an event type.
func (d *Document) OnEvent(node NodeID, event, fn string) {
	n := d.frame.arena.get(node)
	if n == nil {
		return
	}
	if n.handlers == nil {
		n.handlers = map[string]string{}
	}
	n.handlers[event] = fn
}

// RunScript evaluates src in the document's realm, if one exists.
func (d *Document) RunScript(name, src string) error {
	if d.frame.realm == nil {
		return nil
	}
	return d.frame.realm.RunScript(name, src)
}
