// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

// Package script provides the goja-backed script engine: one isolated
// realm per frame, with the window-level bindings the rendering core
// expects. All realm calls happen on the owning tab's content thread, so
// the runtime needs no locking of its own.
package script

import (
	"fmt"
	"strconv"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"

	kestrel "github.com/kestrelweb/kestrel"
)

// Option configures a realm at creation time.
type Option func(*Realm) error

// WithGlobal pre-defines a global value in the realm.
func WithGlobal(name string, value any) Option {
	return func(r *Realm) error {
		return r.vm.Set(name, value)
	}
}

// NewFactory returns a kestrel.ScriptEngineFactory creating one realm per
// frame. Each realm is a separate goja runtime: separate global
// namespaces, with cross-frame traffic going through postMessage only.
func NewFactory(opts ...Option) kestrel.ScriptEngineFactory {
	return func(b kestrel.Bindings) (kestrel.ScriptEngine, error) {
		return newRealm(b, opts...)
	}
}

// Realm is one frame's isolated script environment.
type Realm struct {
	vm       *goja.Runtime
	bindings kestrel.Bindings

	// callbacks holds anonymous functions handed to setTimeout and
	// requestAnimationFrame, keyed by generated names so the core can
	// schedule them through the same Invoke path as named globals.
	callbacks  map[string]goja.Callable
	callbackID int
}

func newRealm(b kestrel.Bindings, opts ...Option) (*Realm, error) {
	r := &Realm{
		vm:        goja.New(),
		bindings:  b,
		callbacks: map[string]goja.Callable{},
	}
	r.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	registry := require.NewRegistry()
	registry.Enable(r.vm)
	if b.Log != nil {
		registry.RegisterNativeModule("console", console.RequireWithPrinter(printer{log: b.Log}))
	}
	console.Enable(r.vm)

	if err := r.installWindow(); err != nil {
		return nil, fmt.Errorf("failed to install window bindings: %w", err)
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return r, nil
}

// installWindow defines the window-level API backed by the core's
// bindings. Callbacks are captured realm-side and scheduled by name so
// the core never holds script objects.
func (r *Realm) installWindow() error {
	vm := r.vm

	if err := vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok || r.bindings.SetTimeout == nil {
			return goja.Undefined()
		}
		delay := call.Argument(1).ToFloat()
		r.bindings.SetTimeout(r.storeCallback(fn), delay)
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := vm.Set("requestAnimationFrame", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok || r.bindings.RequestAnimationFrame == nil {
			return goja.Undefined()
		}
		r.bindings.RequestAnimationFrame(r.storeCallback(fn))
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := vm.Set("setStyle", func(node int, prop, value string) {
		if r.bindings.SetStyle != nil {
			r.bindings.SetStyle(kestrel.NodeID(node), prop, value)
		}
	}); err != nil {
		return err
	}

	parent := vm.NewObject()
	if err := parent.Set("postMessage", func(message string) {
		if r.bindings.PostToParent != nil {
			r.bindings.PostToParent(message)
		}
	}); err != nil {
		return err
	}
	return vm.Set("parent", parent)
}

// storeCallback registers an anonymous function under a generated name.
func (r *Realm) storeCallback(fn goja.Callable) string {
	r.callbackID++
	name := "__callback_" + strconv.Itoa(r.callbackID)
	r.callbacks[name] = fn
	return name
}

// RunScript evaluates src in the realm.
func (r *Realm) RunScript(name, src string) error {
	if _, err := r.vm.RunScript(name, src); err != nil {
		return fmt.Errorf("script %s failed: %w", name, err)
	}
	return nil
}

// Invoke calls a stored callback or a named global function synchronously
// on the calling thread. Stored callbacks are one-shot: consumed on
// invocation, matching timer and animation-frame semantics.
func (r *Realm) Invoke(fn string, args ...any) error {
	callable, stored := r.callbacks[fn]
	if stored {
		delete(r.callbacks, fn)
	} else {
		v := r.vm.Get(fn)
		if v == nil || goja.IsUndefined(v) {
			// No handler installed; a page without an onmessage is fine.
			return nil
		}
		var ok bool
		callable, ok = goja.AssertFunction(v)
		if !ok {
			return fmt.Errorf("%s is not a function", fn)
		}
	}
	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = r.vm.ToValue(a)
	}
	if _, err := callable(goja.Undefined(), values...); err != nil {
		return fmt.Errorf("invoking %s: %w", fn, err)
	}
	return nil
}

// Close releases the realm. goja runtimes are garbage collected; there is
// nothing to tear down beyond dropping callback references.
func (r *Realm) Close() error {
	r.callbacks = nil
	return nil
}

// printer adapts the core's log binding to goja_nodejs's console printer.
type printer struct {
	log func(level, msg string)
}

func (p printer) Log(msg string)   { p.log("log", msg) }
func (p printer) Warn(msg string)  { p.log("warn", msg) }
func (p printer) Error(msg string) { p.log("error", msg) }
