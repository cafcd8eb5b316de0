// Package gojabackend implements the backend.Backend vtable (spec §4.D)
// on top of github.com/dop251/goja, a pure-Go ECMAScript engine. It is
// the one backend that ships linked into the host process — registered
// as a pluginloader.Builtin — standing in for the SpiderMonkey/V8/JSC
// engines the spec's backends would otherwise be, exactly as the
// teacher's own system/tee package uses goja in place of a real V8
// isolate for simulation and non-hardware execution.
package gojabackend

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/r3e-network/natus/backend"
	"github.com/r3e-network/natus/internal/privatemap"
)

const name = "goja"

// handle wraps a goja.Value as a backend.RawHandle.
type handle struct {
	v goja.Value
}

func (h *handle) Backend() string { return name }

func wrap(v goja.Value) backend.RawHandle {
	if v == nil {
		return nil
	}
	return &handle{v: v}
}

// unwrap extracts the goja.Value from a backend.RawHandle produced by
// this backend. It panics if raw came from a different backend — a
// façade bug, not a recoverable runtime condition, matching the other
// examples' "never pass a foreign handle across a backend boundary"
// invariant.
func unwrap(raw backend.RawHandle) goja.Value {
	if raw == nil {
		return goja.Undefined()
	}
	h, ok := raw.(*handle)
	if !ok {
		panic(fmt.Sprintf("gojabackend: foreign raw handle of type %T", raw))
	}
	return h.v
}

// ctx wraps a goja.Runtime as a backend.RawCtx. It also holds the
// identity-keyed registry mapping a *goja.Object to its private map,
// since goja has no built-in per-object native-data slot: this registry
// is what makes GetPrivate (spec §4.D introspection) possible, both for
// plain objects and for class objects built by newClassObject, whose
// private map NewObject records here as well.
type ctx struct {
	vm *goja.Runtime

	mu   sync.Mutex
	priv map[*goja.Object]backend.PrivMap
}

func (c *ctx) Backend() string { return name }

func (c *ctx) setPriv(o *goja.Object, p backend.PrivMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.priv == nil {
		c.priv = make(map[*goja.Object]backend.PrivMap)
	}
	c.priv[o] = p
}

func (c *ctx) getPriv(o *goja.Object) (backend.PrivMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.priv[o]
	return p, ok
}

func newPrivMap() backend.PrivMap {
	return privatemap.New()
}

func unwrapCtx(rc backend.RawCtx) *ctx {
	c, ok := rc.(*ctx)
	if !ok {
		panic(fmt.Sprintf("gojabackend: foreign raw ctx of type %T", rc))
	}
	return c
}

func vmOf(rc backend.RawCtx) *goja.Runtime {
	return unwrapCtx(rc).vm
}
