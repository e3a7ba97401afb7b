// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// rafEntry is one pending requestAnimationFrame registration.
type rafEntry struct {
	frame FrameHandle
	fn    string
}

// Tab is one open page: a frame tree, a task queue and the content thread
// that drains it. The content thread owns script execution and the
// style/layout/paint pipeline; it shares nothing with the host thread
// except the queue and the commit.
type Tab struct {
	browser *Browser
	name    string
	queue   *TaskQueue

	frames    frameArena
	rootFrame FrameHandle

	rafCallbacks []rafEntry
	timers       TimerService

	focused NodeID

	closed atomic.Bool
	done   chan struct{}
}

// newTab wires a tab into its browser and starts the content thread.
func newTab(b *Browser, name string) *Tab {
	t := &Tab{
		browser: b,
		name:    name,
		queue:   NewTaskQueue(),
		focused: NoNode,
		done:    make(chan struct{}),
	}
	go t.run()
	return t
}

// Name returns the tab's diagnostic name.
func (t *Tab) Name() string { return t.name }

// Queue returns the tab's task queue, the only producer-facing surface of
// the content thread.
func (t *Tab) Queue() *TaskQueue { return t.queue }

// RootFrame returns the handle of the tab's root frame.
func (t *Tab) RootFrame() FrameHandle { return t.rootFrame }

// run is the content thread: an endless loop popping the head task and
// running it outside the queue lock. The goroutine is pinned to an OS
// thread so the embedded script engine sees a stable execution
// environment.
func (t *Tab) run() {
	runtime.LockOSThread()
	defer func() {
		t.frames.each(func(f *Frame) {
			if f.realm != nil {
				if err := f.realm.Close(); err != nil {
					t.browser.logger.Error("Failed to close script realm",
						"tab", t.name, "frame", f.url, "error", err)
				}
			}
		})
		close(t.done)
	}()

	for {
		task, ok := t.queue.Pop()
		if !ok {
			return
		}
		t.runTask(task)
	}
}

// runTask executes one task with the panic guard of the task-run boundary:
// a script error is logged and the task is considered complete, leaving no
// partial dirty-bit state behind and never crashing the content thread.
func (t *Tab) runTask(task *Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.browser.metrics.RecordTaskPanic(t.name)
			t.browser.logger.Error("Task execution panic",
				"tab", t.name, "error", r)
		}
		t.browser.metrics.RecordTaskRun(t.name, time.Since(start))
		t.browser.metrics.RecordQueueDepth(t.name, t.queue.Len())
	}()
	task.Run()
}

// Post enqueues a task on the tab's content thread.
func (t *Tab) Post(task *Task) { t.queue.Push(task) }

// Close shuts the content thread down. Queued tasks are dropped; in-flight
// timers find a closed queue and become no-ops.
func (t *Tab) Close() {
	if !t.closed.CompareAndSwap(false, true) {
		return
	}
	t.queue.Close()
	<-t.done
}

// Load navigates the tab's root frame: a fresh frame with a fresh node
// arena and script realm replaces the old one, and scroll resets to zero
// with the content-side change flag raised. build populates the new
// document through the Document facade, standing in for the out-of-scope
// HTML parsing collaborator. Runs on the content thread.
func (t *Tab) Load(url string, build func(*Document)) {
	t.Post(NewTask(func() {
		if old, ok := t.frames.lookup(t.rootFrame); ok {
			if old.realm != nil {
				if err := old.realm.Close(); err != nil {
					t.browser.logger.Error("Failed to close script realm",
						"tab", t.name, "frame", old.url, "error", err)
				}
			}
			t.frames.release(t.rootFrame)
		}
		t.rootFrame = t.newFrame(NilFrame, url)
		f, _ := t.frames.lookup(t.rootFrame)
		f.setScroll(0)
		t.rafCallbacks = nil
		t.focused = NoNode
		if build != nil {
			build(&Document{tab: t, frame: f})
		}
		f.SetNeedsStyle()
		t.ScheduleAnimationFrame()
	}))
}

// newFrame allocates a frame and, when a script factory is configured,
// gives it its own realm with window-level bindings.
func (t *Tab) newFrame(parent FrameHandle, url string) FrameHandle {
	f := &Frame{
		tab:    t,
		parent: parent,
		url:    url,
		origin: originOf(url),
		root:   NoNode,
	}
	h := t.frames.alloc(f)
	if t.browser.scriptFactory != nil {
		realm, err := t.browser.scriptFactory(t.bindingsFor(h))
		if err != nil {
			t.browser.logger.Error("Failed to create script realm",
				"tab", t.name, "frame", url, "error", err)
		} else {
			f.realm = realm
		}
	}
	return h
}

// bindingsFor builds the window-level API for the frame named by h. Every
// closure re-resolves the handle so callbacks arriving after navigation
// no-op instead of touching a dead frame.
func (t *Tab) bindingsFor(h FrameHandle) Bindings {
	return Bindings{
		SetTimeout: func(fn string, delayMillis float64) {
			delay := time.Duration(delayMillis * float64(time.Millisecond))
			t.timers.After(delay, t.queue, NewTask(func() {
				f, ok := t.frames.lookup(h)
				if !ok || f.realm == nil {
					return
				}
				if err := f.realm.Invoke(fn); err != nil {
					t.browser.logger.Error("Timer callback failed",
						"tab", t.name, "fn", fn, "error", err)
				}
			}))
		},
		RequestAnimationFrame: func(fn string) {
			t.rafCallbacks = append(t.rafCallbacks, rafEntry{frame: h, fn: fn})
			t.ScheduleAnimationFrame()
		},
		SetStyle: func(node NodeID, prop, value string) {
			f, ok := t.frames.lookup(h)
			if !ok {
				return
			}
			if n := f.arena.get(node); n != nil {
				n.specified[prop] = value
				f.SetNeedsStyle()
				t.ScheduleAnimationFrame()
			}
		},
		PostMessage: func(target FrameHandle, message string) {
			t.PostMessage(h, target, message)
		},
		PostToParent: func(message string) {
			f, ok := t.frames.lookup(h)
			if !ok || f.parent == NilFrame {
				return
			}
			t.PostMessage(h, f.parent, message)
		},
		Log: func(level, msg string) {
			t.browser.logger.Info("console", "tab", t.name, "level", level, "msg", msg)
		},
	}
}

// PostMessage queues an asynchronous message task for the target frame.
// Delivery is restricted to same-origin frames of the same tab; the
// receiving realm's onmessage runs on this tab's content thread like any
// other task.
func (t *Tab) PostMessage(from, to FrameHandle, message string) {
	t.Post(NewTask(func() {
		src, okSrc := t.frames.lookup(from)
		dst, okDst := t.frames.lookup(to)
		if !okSrc || !okDst || dst.realm == nil {
			return
		}
		if src.origin != dst.origin {
			t.browser.logger.Warn("Cross-origin postMessage blocked",
				"tab", t.name, "from", src.origin, "to", dst.origin)
			return
		}
		if err := dst.realm.Invoke("onmessage", message); err != nil {
			t.browser.logger.Error("onmessage failed",
				"tab", t.name, "error", err)
		}
	}))
}

// CreateSubFrame attaches a nested document under parent, placed at
// offset in the combined display list, and returns its handle. Runs
// synchronously when already called from the content thread's own tasks;
// external callers go through Load-style tasks.
func (t *Tab) CreateSubFrame(parent FrameHandle, url string, offset Point, build func(*Document)) FrameHandle {
	h := t.newFrame(parent, url)
	f, _ := t.frames.lookup(h)
	f.viewport = offset
	if build != nil {
		build(&Document{tab: t, frame: f})
	}
	f.SetNeedsStyle()
	t.ScheduleAnimationFrame()
	return h
}

// ScheduleAnimationFrame asks the host for a rendering frame. Only the
// active tab can raise the host's needs-animation-frame bit; background
// tabs keep running tasks without forcing redraws.
func (t *Tab) ScheduleAnimationFrame() {
	t.browser.RequestAnimationFrame(t)
}

// SmoothScrollTo starts a 30-frame eased scroll of the root frame.
func (t *Tab) SmoothScrollTo(target float64) {
	t.Post(NewTask(func() {
		f, ok := t.frames.lookup(t.rootFrame)
		if !ok {
			return
		}
		f.startAnimation(NoNode, "scroll", NewScrollAnimation(f.scroll, target))
		t.ScheduleAnimationFrame()
	}))
}

// DispatchEvent queues delivery of a DOM-ish event to node's registered
// handler in its frame's realm.
func (t *Tab) DispatchEvent(frame FrameHandle, node NodeID, event string) {
	t.Post(NewTask(func() {
		f, ok := t.frames.lookup(frame)
		if !ok || f.realm == nil {
			return
		}
		n := f.arena.get(node)
		if n == nil {
			return
		}
		fn, ok := n.handlers[event]
		if !ok {
			return
		}
		if event == "click" {
			t.focused = node
		}
		if err := f.realm.Invoke(fn, int(node)); err != nil {
			t.browser.logger.Error("Event handler failed",
				"tab", t.name, "event", event, "error", err)
		}
	}))
}

// renderFrame is the rendering task: the one place per frame-interval
// where the content pipeline runs. The host schedules at most one of
// these per tick, collapsing any number of render requests.
func (t *Tab) renderFrame() {
	// 1. Animation-frame callbacks. The list is cleared before invoking
	// so a callback re-registering itself schedules exactly one
	// additional frame.
	callbacks := t.rafCallbacks
	t.rafCallbacks = nil
	for _, cb := range callbacks {
		f, ok := t.frames.lookup(cb.frame)
		if !ok || f.realm == nil {
			continue
		}
		if err := f.realm.Invoke(cb.fn); err != nil {
			t.browser.logger.Error("Animation frame callback failed",
				"tab", t.name, "fn", cb.fn, "error", err)
		}
	}

	root, ok := t.frames.lookup(t.rootFrame)
	if !ok {
		// No document yet. Commit an empty snapshot so the host releases
		// its pending-render slot instead of waiting forever.
		t.browser.Commit(t, CommitData{FocusedNode: NoNode})
		return
	}

	// 2-5. Resolve exactly one frame tree's worth of dirty bits.
	animating := false
	needPaint := false
	fullPaint := false
	var updates []CompositedUpdate
	var data CommitData
	t.frames.each(func(f *Frame) {
		wasStyle := f.needsStyle
		wasLayout := f.needsLayout
		wasPaint := f.needsPaint

		if f.needsStyle {
			f.recomputeStyle()
			f.needsStyle = false
		}
		if f.needsLayout {
			t.browser.layouter.Layout(f, t.browser.width)
			f.needsLayout = false
		}

		f.compositedUpdates = nil
		f.advanceAnimations()
		layoutAfterAnimation := f.needsLayout
		if f.needsLayout {
			// A layout-inducing animation advanced; re-run layout so this
			// frame paints current geometry.
			t.browser.layouter.Layout(f, t.browser.width)
			f.needsLayout = false
		}

		if f.hasAnimations() {
			animating = true
		}

		if f.needsPaint {
			needPaint = true
			compositeOnly := !wasStyle && !wasLayout && !wasPaint &&
				!layoutAfterAnimation && len(f.compositedUpdates) > 0
			if !compositeOnly {
				fullPaint = true
			}
			updates = append(updates, f.compositedUpdates...)
			f.needsPaint = false
		}
	})

	if needPaint {
		if fullPaint || len(updates) == 0 {
			data.DisplayList = t.paintCombined(root)
		} else {
			// Composited fast path: every dirty frame advanced only
			// visual animations, so the committed layer set can be
			// patched in place without re-paint or re-raster.
			data.CompositedUpdates = updates
		}
	}

	// 6. Accessibility: the tree itself belongs to the out-of-scope
	// collaborator; the commit carries the focus metadata it consumes.

	// 7. Commit the snapshot. The content thread keeps no references into
	// it after this call.
	data.URL = root.url
	data.Height = root.contentHeight()
	data.Scroll = root.scroll
	data.ScrollChanged = root.scrollChanged
	data.FocusedNode = t.focused
	root.scrollChanged = false
	root.compositedUpdates = nil

	t.browser.Commit(t, data)

	// Animations still running need further frames.
	if animating {
		t.ScheduleAnimationFrame()
	}
}

// paintCombined builds the tab's combined display list: the root frame's
// paint output followed by each nested frame's output wrapped in a
// translation to its viewport position. Cross-frame concerns belong to the
// tab, so combination happens here rather than in the painter.
func (t *Tab) paintCombined(root *Frame) []*DisplayItem {
	list := t.browser.painter.Paint(root)
	t.frames.each(func(f *Frame) {
		if f == root {
			return
		}
		sub := t.browser.painter.Paint(f)
		if len(sub) == 0 {
			return
		}
		list = append(list, NewTransform(NoNode, f.viewport, sub))
	})
	return list
}

// durationToFrames converts a CSS duration to a whole frame count at the
// browser's refresh interval.
func (t *Tab) durationToFrames(seconds float64) int {
	frames := int(seconds / t.browser.refreshInterval.Seconds())
	if frames < 1 {
		frames = 1
	}
	return frames
}

// originOf reduces a URL to its scheme://host origin for the same-origin
// postMessage check. Anything unparseable is its own unique origin.
func originOf(url string) string {
	for _, scheme := range []string{"http://", "https://"} {
		if rest, ok := strings.CutPrefix(url, scheme); ok {
			if host, _, found := strings.Cut(rest, "/"); found {
				return scheme + host
			}
			return scheme + rest
		}
	}
	return url
}
