// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"strconv"
	"strings"
)

// animatedProperties is the closed set of properties the transition
// trigger watches.
var animatedProperties = []string{"opacity", "width", "transform"}

// isLayoutProperty reports whether animating prop forces re-layout.
// Opacity and transform are visual-only and reach the screen through the
// composited fast path.
func isLayoutProperty(prop string) bool {
	switch prop {
	case "width", "height":
		return true
	}
	return false
}

// recomputeStyle refreshes every node's computed style from its specified
// style and starts transitions where a watched property changed under a
// declared transition. Cascading and inheritance belong to the style
// collaborator, not this core; computed style here is the specified map
// plus any values animations wrote since the last recompute.
func (f *Frame) recomputeStyle() {
	for id := 0; id < f.arena.len(); id++ {
		n := f.arena.get(NodeID(id))
		old := n.computed
		fresh := make(map[string]string, len(n.specified))
		for k, v := range n.specified {
			fresh[k] = v
		}
		n.prevComputed = old
		n.computed = fresh
		if old == nil {
			continue
		}
		for _, prop := range animatedProperties {
			f.maybeStartTransition(NodeID(id), prop, old, fresh)
		}
	}
}

// maybeStartTransition starts an animation for (node, prop) when both the
// old and new computed styles declare a transition for prop and the value
// actually changed. A transition retriggered mid-flight restarts from the
// current interpolated value over the full new duration: the old computed
// map holds the animated value, so using it as the start point gives that
// policy for free.
func (f *Frame) maybeStartTransition(node NodeID, prop string, old, fresh map[string]string) {
	if _, ok := transitionDuration(old, prop); !ok {
		return
	}
	newDur, ok := transitionDuration(fresh, prop)
	if !ok {
		return
	}
	oldVal, newVal := old[prop], fresh[prop]
	if oldVal == newVal || oldVal == "" || newVal == "" {
		return
	}
	numFrames := f.tab.durationToFrames(newDur)
	switch prop {
	case "transform":
		oldOff, ok1 := parseTranslate(oldVal)
		newOff, ok2 := parseTranslate(newVal)
		if !ok1 || !ok2 {
			return
		}
		f.startAnimation(node, prop, NewTranslateAnimation(node, oldOff, newOff, numFrames))
	default:
		oldNum, unit1, ok1 := parseScalar(oldVal)
		newNum, unit2, ok2 := parseScalar(newVal)
		if !ok1 || !ok2 || unit1 != unit2 {
			return
		}
		f.startAnimation(node, prop, NewNumericAnimation(node, prop, unit1, oldNum, newNum, numFrames))
	}
}

// transitionDuration extracts the declared duration in seconds for prop
// from a style's "transition" entry, e.g. "width 2s, opacity 0.5s".
func transitionDuration(style map[string]string, prop string) (float64, bool) {
	decl, ok := style["transition"]
	if !ok {
		return 0, false
	}
	for _, part := range strings.Split(decl, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) != 2 || fields[0] != prop {
			continue
		}
		secs, ok := strings.CutSuffix(fields[1], "s")
		if !ok {
			return 0, false
		}
		d, err := strconv.ParseFloat(secs, 64)
		if err != nil || d <= 0 {
			return 0, false
		}
		return d, true
	}
	return 0, false
}

// parseScalar splits a CSS numeric value into number and unit suffix
// ("325px" -> 325, "px"; "0.55" -> 0.55, "").
func parseScalar(v string) (float64, string, bool) {
	v = strings.TrimSpace(v)
	i := len(v)
	for i > 0 {
		c := v[i-1]
		if c >= '0' && c <= '9' || c == '.' {
			break
		}
		i--
	}
	num, unit := v[:i], v[i:]
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, "", false
	}
	return n, unit, true
}

// parseTranslate parses "translate(Xpx,Ypx)".
func parseTranslate(v string) (Point, bool) {
	v = strings.TrimSpace(v)
	inner, ok := strings.CutPrefix(v, "translate(")
	if !ok {
		return Point{}, false
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return Point{}, false
	}
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return Point{}, false
	}
	x, _, ok1 := parseScalar(parts[0])
	y, _, ok2 := parseScalar(parts[1])
	if !ok1 || !ok2 {
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

// styleFloat reads a float-valued property with a default.
func styleFloat(style map[string]string, prop string, def float64) float64 {
	v, ok := style[prop]
	if !ok {
		return def
	}
	n, _, ok := parseScalar(v)
	if !ok {
		return def
	}
	return n
}
