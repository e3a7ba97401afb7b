// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionDuration(t *testing.T) {
	style := map[string]string{"transition": "width 2s, opacity 0.5s"}

	d, ok := transitionDuration(style, "width")
	require.True(t, ok)
	assert.Equal(t, 2.0, d)

	d, ok = transitionDuration(style, "opacity")
	require.True(t, ok)
	assert.Equal(t, 0.5, d)

	_, ok = transitionDuration(style, "transform")
	assert.False(t, ok, "undeclared properties do not transition")

	_, ok = transitionDuration(map[string]string{}, "width")
	assert.False(t, ok)

	_, ok = transitionDuration(map[string]string{"transition": "width fast"}, "width")
	assert.False(t, ok, "malformed durations are ignored")

	_, ok = transitionDuration(map[string]string{"transition": "width 0s"}, "width")
	assert.False(t, ok, "zero duration means no transition")
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in   string
		num  float64
		unit string
		ok   bool
	}{
		{"325px", 325, "px", true},
		{"0.55", 0.55, "", true},
		{" 12px ", 12, "px", true},
		{"-4px", -4, "px", true},
		{"px", 0, "", false},
		{"", 0, "", false},
	}
	for _, tt := range tests {
		num, unit, ok := parseScalar(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.num, num, "input %q", tt.in)
			assert.Equal(t, tt.unit, unit, "input %q", tt.in)
		}
	}
}

func TestParseTranslate(t *testing.T) {
	p, ok := parseTranslate("translate(10px,20px)")
	require.True(t, ok)
	assert.Equal(t, Point{X: 10, Y: 20}, p)

	p, ok = parseTranslate("translate(0px, -5px)")
	require.True(t, ok)
	assert.Equal(t, Point{X: 0, Y: -5}, p)

	_, ok = parseTranslate("rotate(45deg)")
	assert.False(t, ok)
	_, ok = parseTranslate("translate(10px)")
	assert.False(t, ok)
}

func TestRecomputeStylePreservesPreviousGeneration(t *testing.T) {
	b := newTestBrowser(t)
	tab := newDetachedTab(b)
	f := newTestFrame(tab, "http://test.example/")
	doc := &Document{tab: tab, frame: f}
	id := doc.AddElement(NoNode, "div", map[string]string{"opacity": "1"})

	f.recomputeStyle()
	doc.SetStyle(id, "opacity", "0.5")
	f.recomputeStyle()

	n := f.arena.get(id)
	assert.Equal(t, "1", n.prevComputed["opacity"])
	assert.Equal(t, "0.5", n.computed["opacity"])
}

func TestIsLayoutProperty(t *testing.T) {
	assert.True(t, isLayoutProperty("width"))
	assert.True(t, isLayoutProperty("height"))
	assert.False(t, isLayoutProperty("opacity"))
	assert.False(t, isLayoutProperty("transform"))
}

func TestStyleFloat(t *testing.T) {
	style := map[string]string{"width": "120px", "junk": "abc"}
	assert.Equal(t, 120.0, styleFloat(style, "width", 1))
	assert.Equal(t, 7.0, styleFloat(style, "missing", 7))
	assert.Equal(t, 7.0, styleFloat(style, "junk", 7))
}
