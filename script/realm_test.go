// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kestrel "github.com/kestrelweb/kestrel"
)

func newTestRealm(t *testing.T, b kestrel.Bindings, opts ...Option) *Realm {
	t.Helper()
	engine, err := NewFactory(opts...)(b)
	require.NoError(t, err)
	r, ok := engine.(*Realm)
	require.True(t, ok)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSetTimeoutStoresCallback(t *testing.T) {
	var gotFn string
	var gotDelay float64
	r := newTestRealm(t, kestrel.Bindings{
		SetTimeout: func(fn string, delayMillis float64) {
			gotFn, gotDelay = fn, delayMillis
		},
	})

	require.NoError(t, r.RunScript("page.js", `
		setTimeout(function() { globalThis.fired = true; }, 25);
	`))
	assert.Equal(t, "__callback_1", gotFn)
	assert.Equal(t, 25.0, gotDelay)

	require.NoError(t, r.Invoke(gotFn))
	assert.True(t, r.vm.Get("fired").ToBoolean())
}

// TestInvokeOneShot: a stored callback is consumed on invocation; a second
// invoke finds nothing and is a quiet no-op.
func TestInvokeOneShot(t *testing.T) {
	var gotFn string
	r := newTestRealm(t, kestrel.Bindings{
		SetTimeout: func(fn string, _ float64) { gotFn = fn },
	})
	require.NoError(t, r.RunScript("page.js", `
		globalThis.n = 0;
		setTimeout(function() { n++; }, 0);
	`))

	require.NoError(t, r.Invoke(gotFn))
	require.NoError(t, r.Invoke(gotFn))
	assert.Equal(t, int64(1), r.vm.Get("n").ToInteger())
}

func TestRequestAnimationFrameBinding(t *testing.T) {
	var registered []string
	r := newTestRealm(t, kestrel.Bindings{
		RequestAnimationFrame: func(fn string) { registered = append(registered, fn) },
	})
	require.NoError(t, r.RunScript("page.js", `
		globalThis.frames = 0;
		requestAnimationFrame(function() { frames++; });
		requestAnimationFrame(function() { frames++; });
	`))
	require.Len(t, registered, 2)

	for _, fn := range registered {
		require.NoError(t, r.Invoke(fn))
	}
	assert.Equal(t, int64(2), r.vm.Get("frames").ToInteger())
}

func TestSetStyleBinding(t *testing.T) {
	type styleCall struct {
		node        kestrel.NodeID
		prop, value string
	}
	var got []styleCall
	r := newTestRealm(t, kestrel.Bindings{
		SetStyle: func(node kestrel.NodeID, prop, value string) {
			got = append(got, styleCall{node, prop, value})
		},
	})
	require.NoError(t, r.RunScript("page.js", `setStyle(3, "width", "100px");`))
	require.Len(t, got, 1)
	assert.Equal(t, styleCall{3, "width", "100px"}, got[0])
}

func TestParentPostMessage(t *testing.T) {
	var got []string
	r := newTestRealm(t, kestrel.Bindings{
		PostToParent: func(message string) { got = append(got, message) },
	})
	require.NoError(t, r.RunScript("page.js", `parent.postMessage("ping");`))
	assert.Equal(t, []string{"ping"}, got)
}

func TestInvokeNamedGlobal(t *testing.T) {
	r := newTestRealm(t, kestrel.Bindings{})
	require.NoError(t, r.RunScript("page.js", `
		globalThis.last = null;
		function onmessage(msg) { last = msg; }
	`))

	require.NoError(t, r.Invoke("onmessage", "hello"))
	assert.Equal(t, "hello", r.vm.Get("last").String())

	assert.NoError(t, r.Invoke("missingHandler"),
		"a page without the handler installed is fine")

	require.NoError(t, r.RunScript("page.js", `globalThis.notFn = 42;`))
	assert.Error(t, r.Invoke("notFn"))
}

func TestConsoleRoutesToLogBinding(t *testing.T) {
	type logCall struct{ level, msg string }
	var got []logCall
	r := newTestRealm(t, kestrel.Bindings{
		Log: func(level, msg string) { got = append(got, logCall{level, msg}) },
	})
	require.NoError(t, r.RunScript("page.js", `
		console.log("hi");
		console.warn("careful");
		console.error("boom");
	`))
	require.Len(t, got, 3)
	assert.Equal(t, logCall{"log", "hi"}, got[0])
	assert.Equal(t, logCall{"warn", "careful"}, got[1])
	assert.Equal(t, logCall{"error", "boom"}, got[2])
}

func TestWithGlobal(t *testing.T) {
	r := newTestRealm(t, kestrel.Bindings{}, WithGlobal("answer", 42))
	require.NoError(t, r.RunScript("page.js", `
		if (answer !== 42) { throw new Error("missing global"); }
	`))
}

func TestRunScriptError(t *testing.T) {
	r := newTestRealm(t, kestrel.Bindings{})
	err := r.RunScript("broken.js", `throw new Error("boom");`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.js")
}

// TestRealmIsolation: two realms from the same factory share nothing.
func TestRealmIsolation(t *testing.T) {
	factory := NewFactory()
	a, err := factory(kestrel.Bindings{})
	require.NoError(t, err)
	b, err := factory(kestrel.Bindings{})
	require.NoError(t, err)

	require.NoError(t, a.RunScript("a.js", `globalThis.secret = "tab-a";`))
	require.NoError(t, b.RunScript("b.js", `
		if (typeof secret !== "undefined") { throw new Error("leaked"); }
	`))
}
