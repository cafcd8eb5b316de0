package natus

import (
	"github.com/r3e-network/natus/backend"
	"github.com/r3e-network/natus/internal/memgraph"
)

// Context is one backend execution context — roughly, one engine
// "runtime+context" pair (spec §3 Context). It owns a reference to its
// Engine; it is destroyed only after every Value referencing it has been
// dropped.
type Context struct {
	engine *Engine
	raw    backend.RawCtx
	node   *memgraph.Node

	// dll, if non-nil, anchors the native loader's dynamic-library
	// handle (spec §4.J, §5 "shared across all modules loaded into one
	// global; unloaded only when the Context is destroyed"). Named so
	// memgraph.ChildrenForeach(ctxNode, "dll", ...) can find it.
	dll *memgraph.Node
}

// Engine returns the backend engine this Context was created from.
func (c *Context) Engine() *Engine { return c.engine }

// Backend exposes the raw vtable for packages (require, args) that must
// construct or coerce values without going through the higher-level
// Value API — kept unexported-package-only by convention, not by Go
// visibility, since require is a sibling package that legitimately needs
// it.
func (c *Context) Backend() backend.Backend { return c.engine.vtable }

func (c *Context) rawCtx() backend.RawCtx { return c.raw }

// DLLNode returns the memgraph node reserved for the native loader's
// shared dynamic-library handle, creating it on first use.
func (c *Context) DLLNode() *memgraph.Node {
	if c.dll == nil {
		c.dll = memgraph.New(c.node)
		c.dll.NameSet("dll")
	}
	return c.dll
}

// Close releases the Context's reference to its Engine. Call once all
// Values referencing the Context have been dropped; memgraph enforces
// nothing here beyond the refcount — it is the caller's job (the Engine
// façade) to sequence Value drops before Context drops, matching spec §3
// Context's invariant.
func (c *Context) Close() {
	if c.engine != nil && c.engine.metrics != nil {
		c.engine.metrics.ContextDestroyed()
	}
	c.engine.vtable.CtxFree(c.raw)
	memgraph.Decref(c.engine.node, c.node)
}
