// Package natus is the polyglot façade (spec §3-§5): one small Go API
// in front of interchangeable JavaScript engine backends, built on the
// vtable in package backend. Engine discovers and owns a backend;
// Context and Value do everything else.
package natus

import (
	"github.com/r3e-network/natus/backend"
	"github.com/r3e-network/natus/backend/pluginloader"
	"github.com/r3e-network/natus/internal/memgraph"
	"github.com/r3e-network/natus/internal/privatemap"
	"github.com/r3e-network/natus/pkg/natuserr"
	"github.com/r3e-network/natus/pkg/natuslog"
	"github.com/r3e-network/natus/pkg/natusmetrics"
)

// Engine is a loaded backend: either a builtin (gojabackend) or a
// dynamic-library plugin discovered under an engines directory (spec
// §4.C). Every Context created from it shares the same vtable.
type Engine struct {
	name   string
	vtable backend.Backend
	node   *memgraph.Node

	log     *natuslog.Logger
	metrics *natusmetrics.Registry
}

// Option configures optional collaborators on an Engine. Every Natus
// component that wants structured logging or metrics takes them this
// way rather than reaching for globals (spec's ambient-stack
// expectation, matching how the teacher's tee package threads a logger
// through construction).
type Option func(*Engine)

// WithLogger attaches a logger; the zero value otherwise uses
// natuslog.NewDefault(name).
func WithLogger(l *natuslog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics attaches a metrics registry. Passing nil is a no-op
// (Registry's methods tolerate a nil receiver already).
func WithMetrics(m *natusmetrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// Open discovers and loads a backend by name or path (spec §4.C via
// pluginloader.Discover) and returns an Engine ready to create globals
// from. enginesDir is the directory dynamic-library candidates are
// searched under; nameOrPath follows pluginloader.Discover's resolution
// order.
func Open(enginesDir, nameOrPath string, opts ...Option) (*Engine, error) {
	e := &Engine{node: memgraph.NewRoot()}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = natuslog.NewDefault("natus")
	}

	d, err := pluginloader.Discover(enginesDir, nameOrPath)
	if err != nil {
		e.metrics.EngineLoadFailed(nameOrPath)
		e.log.WithField("engine", nameOrPath).WithField("error", err).Warn("engine load failed")
		return nil, natuserr.ImportWrap(err, "load engine %q", nameOrPath)
	}
	e.name = d.Name
	e.vtable = d.VTable
	e.metrics.EngineLoadedEvent()
	e.log.WithField("engine", e.name).Info("engine loaded")
	return e, nil
}

// Name is the backend's self-reported name (e.g. "goja").
func (e *Engine) Name() string { return e.name }

// NewGlobal creates a fresh top-level Context and its global object
// (spec §3 Context/Global, §4.D NewGlobal). parent, if non-nil, makes
// the new context's global object a child context of parent's (spec §5
// "Global"'s parent-chaining); pass nil for a standalone engine root.
func (e *Engine) NewGlobal(parent *Context) (*Context, *Value, error) {
	var parentRaw backend.RawCtx
	var parentGlobal backend.RawHandle
	var parentGraphNode *memgraph.Node = e.node
	if parent != nil {
		parentRaw = parent.raw
		parentGraphNode = parent.node
	}

	ctxNode := memgraph.New(parentGraphNode)
	priv := privatemap.New()

	rawCtx, rawGlobal, flags, err := e.vtable.NewGlobal(parentRaw, parentGlobal, priv)
	if err != nil {
		priv.Free()
		memgraph.Decref(parentGraphNode, ctxNode)
		return nil, nil, natuserr.Wrap(natuserr.KindLogic, "NEW_GLOBAL_1", "new_global failed", err)
	}

	c := &Context{engine: e, raw: rawCtx, node: ctxNode}
	e.metrics.ContextCreated()

	g := newValue(c, rawGlobal, flags)
	prevDtor := g.node.DestructorGet()
	g.node.DestructorSet(func() {
		priv.Free()
		if prevDtor != nil {
			prevDtor()
		}
	})
	if err := installConsole(c, g); err != nil {
		e.log.WithField("error", err).Warn("console global install failed")
	}
	return c, g, nil
}

// Close releases the Engine's own memgraph root; call after every
// Context created from it has been closed.
func (e *Engine) Close() {
	memgraph.Decref(nil, e.node)
}
