// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

// Layouter is the layout collaborator: it assigns absolute document-space
// rects to every node of the frame. Full CSS layout is out of scope; the
// built-in blockLayouter stacks boxes vertically using explicit px sizes.
type Layouter interface {
	Layout(f *Frame, availableWidth float64)
}

// Painter is the paint collaborator: it turns a laid-out frame into a
// display list of leaf paint operations wrapped in visual-effect scopes.
type Painter interface {
	Paint(f *Frame) []*DisplayItem
}

// ScriptEngine is the script collaborator owned by one frame. Callbacks
// are invoked synchronously on the calling thread and must not block on
// I/O; all engine calls happen on the owning tab's content thread.
type ScriptEngine interface {
	// RunScript evaluates src in the frame's realm.
	RunScript(name, src string) error

	// Invoke calls a named global function with the given arguments.
	Invoke(fn string, args ...any) error

	// Close releases the realm.
	Close() error
}

// ScriptEngineFactory creates the realm for a freshly navigated frame.
// Host bindings give the realm its window-level API (timers, rAF, style
// mutation, postMessage).
type ScriptEngineFactory func(b Bindings) (ScriptEngine, error)

// Bindings is the window-level API a realm exposes to page scripts. Every
// callback runs on the frame's content thread.
type Bindings struct {
	// SetTimeout schedules fn in the frame's realm after delayMillis.
	SetTimeout func(fn string, delayMillis float64)

	// RequestAnimationFrame registers fn to run at the start of the next
	// rendering frame and asks the host for one.
	RequestAnimationFrame func(fn string)

	// SetStyle mutates a node's specified style and dirties the pipeline.
	SetStyle func(node NodeID, prop, value string)

	// PostMessage queues a message task on a sibling frame's queue.
	PostMessage func(target FrameHandle, message string)

	// PostToParent queues a message task on the parent frame's queue,
	// the explicit cross-realm handle of nested documents.
	PostToParent func(message string)

	// Log routes console output.
	Log func(level, msg string)
}
