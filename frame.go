// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

// FrameHandle names a frame inside its tab's frame arena without holding a
// reference to it. Handles are generational: a handle taken before a
// frame's slot was reused fails lookup explicitly instead of dangling.
type FrameHandle struct {
	Index uint32
	Gen   uint32
}

// NilFrame is the zero handle; it never resolves.
var NilFrame = FrameHandle{}

// Frame is one document inside a tab: its node arena, computed styles,
// scroll offset and the dirty bits of the rendering pipeline. A frame's
// state is only ever touched by its tab's content thread or by tasks
// scheduled onto it.
type Frame struct {
	handle FrameHandle
	tab    *Tab
	parent FrameHandle // NilFrame for the root frame

	url    string
	origin string

	// viewport places a nested frame's content inside the tab's combined
	// display list; zero for the root frame.
	viewport Point

	arena nodeArena
	root  NodeID

	// Pipeline dirty bits. needsStyle implies needsLayout implies
	// needsPaint; the setters below keep that chain.
	needsStyle  bool
	needsLayout bool
	needsPaint  bool

	scroll float64
	// scrollChanged marks a content-side scroll change (navigation reset,
	// smooth-scroll step) that must override the host's own scroll state
	// at the next commit.
	scrollChanged bool

	// animations keys per-(node, property) interpolators; values are
	// advanced exactly once per rendering frame.
	animations map[animKey]Animation

	// compositedUpdates accumulates draw-parameter-only changes produced
	// by visual animations this frame; drained into CommitData.
	compositedUpdates []CompositedUpdate

	realm ScriptEngine
}

// Handle returns the frame's generational handle.
func (f *Frame) Handle() FrameHandle { return f.handle }

// URL returns the document URL the frame currently hosts.
func (f *Frame) URL() string { return f.url }

// Root returns the root node of the frame's document.
func (f *Frame) Root() NodeID { return f.root }

// Scroll returns the frame's current scroll offset.
func (f *Frame) Scroll() float64 { return f.scroll }

// SetNeedsStyle marks the whole pipeline dirty from style down.
func (f *Frame) SetNeedsStyle() {
	f.needsStyle = true
	f.needsLayout = true
	f.needsPaint = true
}

// SetNeedsLayout marks layout and paint dirty without touching style.
// Layout-inducing animations use this so style recompute does not observe
// the animated value and spuriously restart the transition.
func (f *Frame) SetNeedsLayout() {
	f.needsLayout = true
	f.needsPaint = true
}

// SetNeedsPaint marks only paint dirty. Visual-only animations (opacity,
// transform) use this.
func (f *Frame) SetNeedsPaint() {
	f.needsPaint = true
}

// compositedUpdate records a draw-parameter change for the commit snapshot.
func (f *Frame) compositedUpdate(u CompositedUpdate) {
	f.compositedUpdates = append(f.compositedUpdates, u)
}

// setScroll records a content-side scroll change and flags it for commit.
func (f *Frame) setScroll(offset float64) {
	f.scroll = offset
	f.scrollChanged = true
}

// frameSlot is one arena cell; gen increments on release so stale handles
// miss.
type frameSlot struct {
	frame *Frame
	gen   uint32
	live  bool
}

// frameArena is the tab-owned registry of frames, addressed by generational
// handles rather than pointers, so host code and scripts can name frames
// across the thread boundary without keeping them alive.
type frameArena struct {
	slots []frameSlot
}

// alloc places f in a free slot (or a new one) and stamps its handle.
func (a *frameArena) alloc(f *Frame) FrameHandle {
	for i := range a.slots {
		if !a.slots[i].live {
			a.slots[i].frame = f
			a.slots[i].live = true
			h := FrameHandle{Index: uint32(i), Gen: a.slots[i].gen}
			f.handle = h
			return h
		}
	}
	a.slots = append(a.slots, frameSlot{frame: f, gen: 1, live: true})
	h := FrameHandle{Index: uint32(len(a.slots) - 1), Gen: 1}
	f.handle = h
	return h
}

// lookup resolves h, reporting false for released or never-issued handles.
func (a *frameArena) lookup(h FrameHandle) (*Frame, bool) {
	if int(h.Index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.Index]
	if !s.live || s.gen != h.Gen {
		return nil, false
	}
	return s.frame, true
}

// release frees h's slot and bumps its generation, invalidating all
// outstanding copies of the handle. Releasing a stale handle is a no-op.
func (a *frameArena) release(h FrameHandle) {
	if int(h.Index) >= len(a.slots) {
		return
	}
	s := &a.slots[h.Index]
	if !s.live || s.gen != h.Gen {
		return
	}
	s.frame = nil
	s.live = false
	s.gen++
}

// each calls fn for every live frame in allocation order.
func (a *frameArena) each(fn func(*Frame)) {
	for i := range a.slots {
		if a.slots[i].live {
			fn(a.slots[i].frame)
		}
	}
}
