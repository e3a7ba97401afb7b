// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// advanceOneFrame mimics the per-frame animation step of the rendering
// task: drain the update list, then advance every animation once.
func advanceOneFrame(f *Frame) {
	f.compositedUpdates = nil
	f.advanceAnimations()
}

// clearDirtyBits resets the pipeline bits the way a rendering task does
// after resolving them.
func clearDirtyBits(f *Frame) {
	f.needsStyle = false
	f.needsLayout = false
	f.needsPaint = false
}

func TestNumericAnimationMonotonic(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")
	doc := &Document{tab: tab, frame: f}
	id := doc.AddElement(NoNode, "div", nil)
	f.recomputeStyle()

	f.startAnimation(id, "opacity", NewNumericAnimation(id, "opacity", "", 0, 100, 10))

	prev := -1.0
	for i := 0; i < 10; i++ {
		advanceOneFrame(f)
		v, _, ok := parseScalar(f.arena.get(id).computed["opacity"])
		require.True(t, ok)
		assert.Greater(t, v, prev, "interpolated values move strictly toward the target")
		prev = v
	}
	assert.Equal(t, "100", f.arena.get(id).computed["opacity"],
		"the final frame lands exactly on the new value")
	assert.False(t, f.hasAnimations(), "a finished animation is pruned the same frame")
}

func TestOpacityTransition(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")
	doc := &Document{tab: tab, frame: f}
	id := doc.AddElement(NoNode, "div", map[string]string{
		"opacity":    "1",
		"transition": "opacity 2s",
	})
	f.recomputeStyle()

	doc.SetStyle(id, "opacity", "0.1")
	f.SetNeedsStyle()
	f.recomputeStyle()
	require.True(t, f.hasAnimations(), "a watched property change under a declared transition animates")
	clearDirtyBits(f)

	// 2s at 60Hz is 120 frames; halfway through, opacity sits halfway.
	for i := 0; i < 60; i++ {
		advanceOneFrame(f)
	}
	v, _, ok := parseScalar(f.arena.get(id).computed["opacity"])
	require.True(t, ok)
	assert.InDelta(t, 0.55, v, 1e-9)

	// Visual animation: paint dirty only, and a patchable update emitted.
	assert.True(t, f.needsPaint)
	assert.False(t, f.needsLayout)
	assert.False(t, f.needsStyle)
	require.Len(t, f.compositedUpdates, 1)
	assert.Equal(t, KindBlend, f.compositedUpdates[0].Kind)
	assert.Equal(t, id, f.compositedUpdates[0].Node)
	assert.InDelta(t, 0.55, f.compositedUpdates[0].Opacity, 1e-9)
}

func TestWidthTransition(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")
	doc := &Document{tab: tab, frame: f}
	id := doc.AddElement(NoNode, "div", map[string]string{
		"width":      "400px",
		"transition": "width 2s",
	})
	f.recomputeStyle()

	doc.SetStyle(id, "width", "100px")
	f.SetNeedsStyle()
	f.recomputeStyle()
	require.True(t, f.hasAnimations())
	clearDirtyBits(f)

	for i := 0; i < 30; i++ {
		advanceOneFrame(f)
	}
	assert.Equal(t, "325px", f.arena.get(id).computed["width"])

	// Layout-inducing animation: layout (and so paint) dirty, style clean,
	// and no composited fast-path update.
	assert.True(t, f.needsLayout)
	assert.True(t, f.needsPaint)
	assert.False(t, f.needsStyle)
	assert.Empty(t, f.compositedUpdates)
}

func TestTransformTransition(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")
	doc := &Document{tab: tab, frame: f}
	id := doc.AddElement(NoNode, "div", map[string]string{
		"transform":  "translate(0px,0px)",
		"transition": "transform 1s",
	})
	f.recomputeStyle()

	doc.SetStyle(id, "transform", "translate(120px,60px)")
	f.SetNeedsStyle()
	f.recomputeStyle()
	require.True(t, f.hasAnimations())
	clearDirtyBits(f)

	for i := 0; i < 30; i++ {
		advanceOneFrame(f)
	}
	assert.Equal(t, "translate(60px,30px)", f.arena.get(id).computed["transform"])
	assert.True(t, f.needsPaint)
	assert.False(t, f.needsLayout)
	require.Len(t, f.compositedUpdates, 1)
	assert.Equal(t, KindTransform, f.compositedUpdates[0].Kind)
	assert.Equal(t, Point{X: 60, Y: 30}, f.compositedUpdates[0].Offset)
}

// TestTransitionRetrigger changes the target mid-flight and expects the
// replacement animation to start from the current interpolated value over
// the full new duration.
func TestTransitionRetrigger(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")
	doc := &Document{tab: tab, frame: f}
	id := doc.AddElement(NoNode, "div", map[string]string{
		"opacity":    "1",
		"transition": "opacity 2s",
	})
	f.recomputeStyle()

	doc.SetStyle(id, "opacity", "0")
	f.SetNeedsStyle()
	f.recomputeStyle()
	for i := 0; i < 60; i++ {
		advanceOneFrame(f)
	}
	v, _, _ := parseScalar(f.arena.get(id).computed["opacity"])
	require.InDelta(t, 0.5, v, 1e-9)

	// Reverse direction while the first transition is still running.
	doc.SetStyle(id, "opacity", "1")
	f.SetNeedsStyle()
	f.recomputeStyle()
	require.True(t, f.hasAnimations())

	advanceOneFrame(f)
	v, _, _ = parseScalar(f.arena.get(id).computed["opacity"])
	assert.InDelta(t, 0.5+0.5/120, v, 1e-9,
		"the retriggered transition restarts from the interpolated value, not the specified one")
}

func TestTransitionRequiresDeclaration(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")
	doc := &Document{tab: tab, frame: f}

	// No transition declared: the change applies instantly.
	plain := doc.AddElement(NoNode, "div", map[string]string{"opacity": "1"})
	f.recomputeStyle()
	doc.SetStyle(plain, "opacity", "0.2")
	f.recomputeStyle()
	assert.False(t, f.hasAnimations())
	assert.Equal(t, "0.2", f.arena.get(plain).computed["opacity"])
}

func TestTransitionNotStartedForEqualValues(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")
	doc := &Document{tab: tab, frame: f}
	doc.AddElement(NoNode, "div", map[string]string{
		"opacity":    "1",
		"transition": "opacity 2s",
	})
	f.recomputeStyle()
	f.recomputeStyle()
	assert.False(t, f.hasAnimations())
}

func TestScrollAnimation(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")

	f.startAnimation(NoNode, "scroll", NewScrollAnimation(0, 300))
	prev := -1.0
	for i := 0; i < scrollFrames; i++ {
		f.scrollChanged = false
		advanceOneFrame(f)
		assert.True(t, f.scrollChanged, "every step flags the content-side scroll change")
		assert.Greater(t, f.scroll, prev)
		prev = f.scroll
	}
	assert.Equal(t, 300.0, f.scroll)
	assert.False(t, f.hasAnimations())
}

func TestAdvanceDropsAnimationsForDeadNodes(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")

	f.startAnimation(42, "opacity", NewNumericAnimation(42, "opacity", "", 0, 1, 10))
	advanceOneFrame(f)
	assert.False(t, f.hasAnimations(), "an animation whose node is gone finishes immediately")
}

func TestDurationToFrames(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	assert.Equal(t, 120, tab.durationToFrames(2))
	assert.Equal(t, 30, tab.durationToFrames(0.5))
	assert.Equal(t, 1, tab.durationToFrames(0.001), "sub-frame durations still get one frame")
}

func TestLerpEndpoints(t *testing.T) {
	assert.Equal(t, 0.0, lerp(0, 100, 0, 10))
	assert.Equal(t, 100.0, lerp(0, 100, 10, 10))
	assert.Equal(t, 55.0, lerp(100, 10, 5, 10))
}
