// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"fmt"
	"sort"
)

// animKey identifies one live animation: a (node, property) pair inside a
// frame. Scroll animations use NoNode and the pseudo-property "scroll".
type animKey struct {
	node NodeID
	prop string
}

// Animation is a per-(node, property) interpolator advanced by exactly one
// discrete step per rendering frame. Advance writes the new value into the
// frame (computed style or scroll offset), raises the dirty bits the
// property class requires, and reports whether frames remain. An animation
// reporting no more frames is removed from the registry in the same frame.
type Animation interface {
	Advance(fr *Frame) (more bool)
}

// lerp computes old + (new-old)*frame/total in double precision. Pixel
// values are truncated only at final rect construction, never here, so
// rounding error does not compound across frames.
func lerp(oldValue, newValue float64, frame, total int) float64 {
	return oldValue + (newValue-oldValue)*float64(frame)/float64(total)
}

// NumericAnimation interpolates a single scalar property, optionally
// unit-suffixed (opacity, width in px).
type NumericAnimation struct {
	node      NodeID
	property  string
	unit      string
	oldValue  float64
	newValue  float64
	frame     int
	numFrames int
}

// NewNumericAnimation builds a linear scalar animation over numFrames
// discrete steps.
func NewNumericAnimation(node NodeID, property, unit string, oldValue, newValue float64, numFrames int) *NumericAnimation {
	if numFrames < 1 {
		numFrames = 1
	}
	return &NumericAnimation{
		node: node, property: property, unit: unit,
		oldValue: oldValue, newValue: newValue, numFrames: numFrames,
	}
}

// Advance writes the next interpolated value into the node's computed
// style. Layout-inducing properties dirty layout (which implies paint);
// visual properties dirty only paint, deliberately leaving needsStyle
// clear so style recompute does not observe the animated value and restart
// the transition.
func (a *NumericAnimation) Advance(fr *Frame) bool {
	a.frame++
	v := lerp(a.oldValue, a.newValue, a.frame, a.numFrames)
	n := fr.arena.get(a.node)
	if n == nil {
		return false
	}
	n.computed[a.property] = formatScalar(v, a.unit)
	if isLayoutProperty(a.property) {
		fr.SetNeedsLayout()
	} else {
		fr.SetNeedsPaint()
		fr.compositedUpdate(CompositedUpdate{Node: a.node, Kind: KindBlend, Opacity: v})
	}
	return a.frame < a.numFrames
}

// TranslateAnimation interpolates a 2D translation transform.
type TranslateAnimation struct {
	node      NodeID
	oldOffset Point
	newOffset Point
	frame     int
	numFrames int
}

// NewTranslateAnimation builds a linear translation animation.
func NewTranslateAnimation(node NodeID, oldOffset, newOffset Point, numFrames int) *TranslateAnimation {
	if numFrames < 1 {
		numFrames = 1
	}
	return &TranslateAnimation{node: node, oldOffset: oldOffset, newOffset: newOffset, numFrames: numFrames}
}

// Advance writes the next interpolated offset into the node's computed
// transform. Transforms are visual-only: paint dirty, style and layout
// untouched.
func (a *TranslateAnimation) Advance(fr *Frame) bool {
	a.frame++
	off := Point{
		X: lerp(a.oldOffset.X, a.newOffset.X, a.frame, a.numFrames),
		Y: lerp(a.oldOffset.Y, a.newOffset.Y, a.frame, a.numFrames),
	}
	n := fr.arena.get(a.node)
	if n == nil {
		return false
	}
	n.computed["transform"] = formatTranslate(off)
	fr.SetNeedsPaint()
	fr.compositedUpdate(CompositedUpdate{Node: a.node, Kind: KindTransform, Offset: off})
	return a.frame < a.numFrames
}

// scrollFrames is the fixed duration of a smooth scroll.
const scrollFrames = 30

// ScrollAnimation eases the frame's scroll offset over scrollFrames frames.
// It writes the frame's scroll field rather than a style property and flags
// the change so the host adopts it at commit.
type ScrollAnimation struct {
	oldOffset float64
	newOffset float64
	frame     int
}

// NewScrollAnimation builds a smooth scroll from the frame's current offset
// to target.
func NewScrollAnimation(current, target float64) *ScrollAnimation {
	return &ScrollAnimation{oldOffset: current, newOffset: target}
}

// Advance steps the scroll offset. Scroll is applied at draw time, so only
// a commit is needed, not a re-paint; the render task commits every frame
// it runs regardless.
func (a *ScrollAnimation) Advance(fr *Frame) bool {
	a.frame++
	fr.setScroll(lerp(a.oldOffset, a.newOffset, a.frame, scrollFrames))
	return a.frame < scrollFrames
}

// startAnimation registers (or replaces) the animation for key. Replacement
// is the retrigger policy: the caller constructs the new animation starting
// from the current interpolated value.
func (f *Frame) startAnimation(node NodeID, prop string, a Animation) {
	if f.animations == nil {
		f.animations = map[animKey]Animation{}
	}
	f.animations[animKey{node: node, prop: prop}] = a
}

// advanceAnimations runs every live animation one frame forward and prunes
// finished ones. The key set is snapshotted (and ordered) before any
// Advance call so registry mutation during iteration is safe and the
// resulting composited-update order is deterministic.
func (f *Frame) advanceAnimations() {
	if len(f.animations) == 0 {
		return
	}
	keys := make([]animKey, 0, len(f.animations))
	for k := range f.animations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].node != keys[j].node {
			return keys[i].node < keys[j].node
		}
		return keys[i].prop < keys[j].prop
	})
	for _, k := range keys {
		a, ok := f.animations[k]
		if !ok {
			continue
		}
		if !a.Advance(f) {
			delete(f.animations, k)
		}
	}
}

// hasAnimations reports whether any animation still has frames to run.
func (f *Frame) hasAnimations() bool { return len(f.animations) > 0 }

// formatScalar renders v as a CSS value with an optional unit suffix.
func formatScalar(v float64, unit string) string {
	return trimFloat(v) + unit
}

// formatTranslate renders off as a CSS translate() value.
func formatTranslate(off Point) string {
	return fmt.Sprintf("translate(%spx,%spx)", trimFloat(off.X), trimFloat(off.Y))
}

// trimFloat formats without trailing zeros so values round-trip through
// style parsing cleanly.
func trimFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	return s
}
