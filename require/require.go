// Package require implements the CommonJS-style module system (spec
// §4.I): config store, whitelist/origin matchers, hook chain, module
// cache, per-module scope construction, and the relative-path
// evaluation stack.
package require

import (
	"strings"

	"github.com/r3e-network/natus"
	"github.com/r3e-network/natus/pkg/natuscfg"
	"github.com/r3e-network/natus/pkg/natuserr"
	"github.com/r3e-network/natus/pkg/natuslog"
	"github.com/r3e-network/natus/pkg/natusmetrics"
)

// Step identifies which stage of the require pipeline a hook is running
// in (spec §4.I).
type Step string

const (
	StepResolve Step = "resolve"
	StepLoad    Step = "load"
	StepProcess Step = "process"
)

// Hook is one user- or built-in-installable callback in the chain.
// Resolve hooks return a cached module to short-circuit; Load hooks
// materialize a module's exports into scope.exports; Process hooks may
// mutate exports after a successful load. A hook returns (nil, nil) to
// mean "continue to the next hook", matching the backend trampoline
// convention of undefined-non-exception (spec §4.I step 1 and 3).
type Hook struct {
	Name string
	Fn   func(step Step, name string, scope *Scope, st *State) (*natus.Value, error)
}

// OriginMatcher decides whether uri matches one whitelist/blacklist
// entry (spec §4.I "origin matchers"). The built-in matcher does a
// simple prefix match and is the only one a State holds (see
// PrefixOriginMatcher).
type OriginMatcher func(entry, uri string) bool

// Scope is the per-module scope constructed for each require() call
// (spec §4.I step 2): exports/module objects sharing the parent's
// Context and runtime — not a second Context — so a value a loader
// hook puts into scope.Exports is usable by the calling script without
// crossing an engine-runtime boundary. Carries module.uri outside
// sandbox mode.
type Scope struct {
	Ctx      *natus.Context
	Exports  *natus.Value
	Module   *natus.Value
	ModuleID string
}

// State is the require subsystem's per-global state (spec §3 "Require
// state"): config, hook chain, origin matchers, module cache, and the
// evaluation stack used to resolve relative imports.
type State struct {
	ctx  *natus.Context
	view natuscfg.RequireView

	hooks     []Hook
	origins   []OriginMatcher
	cache     map[string]*natus.Value
	evalStack []string
	requireFn *natus.Value

	log     *natuslog.Logger
	metrics *natusmetrics.Registry
}

// Option configures a State at Init time.
type Option func(*State)

func WithLogger(l *natuslog.Logger) Option     { return func(s *State) { s.log = l } }
func WithMetrics(m *natusmetrics.Registry) Option { return func(s *State) { s.metrics = m } }

// reservedKey is the private-map slot Init anchors a global's require
// State under. Nothing in this package reads it back.
const reservedKey = "__natus_require_state__"

// Init parses rawConfig (the §6 config shape) and, if
// natus.require.path is a non-empty array, installs a global `require`
// function and creates the eval stack (spec §4.I init). Returns the
// constructed State so the caller can also call Require(name) directly.
func Init(ctx *natus.Context, global *natus.Value, rawConfig []byte, opts ...Option) (*State, error) {
	view := natuscfg.NewRequireView(rawConfig)
	st := &State{
		ctx:   ctx,
		view:  view,
		cache: make(map[string]*natus.Value),
	}
	for _, opt := range opts {
		opt(st)
	}
	if st.log == nil {
		st.log = natuslog.NewDefault("require")
	}
	st.origins = append(st.origins, PrefixOriginMatcher)
	InstallHook(st, NativeLoaderHookName, nativeLoaderFallback)

	if priv, ok := global.Private(); ok {
		priv.Set(reservedKey, st, nil)
	}

	if !view.HasPath() {
		return st, nil
	}

	fn, err := ctx.Function("require", natus.NativeFunc(ctx, func(this *natus.Value, args []*natus.Value) (*natus.Value, error) {
		if len(args) == 0 {
			return ctx.Throw(natuserr.TypeErrorf("require: missing module name"))
		}
		name, err := args[0].ToString()
		if err != nil {
			return ctx.Throw(natuserr.TypeErrorf("require: module name must be a string"))
		}
		res, err := st.Require(name)
		if err != nil {
			if ne, ok := natuserr.As(err); ok {
				return ctx.Throw(ne)
			}
			return nil, err
		}
		return res, nil
	}))
	if err != nil {
		return nil, err
	}
	if err := global.Set("require", fn); err != nil {
		return nil, err
	}
	st.requireFn = fn

	if _, sandbox := view.Whitelist(); !sandbox {
		paths, err := toStringArray(ctx, view.Path())
		if err != nil {
			return nil, err
		}
		if err := fn.Set("paths", paths); err != nil {
			return nil, err
		}
	}

	return st, nil
}

// InstallHook appends hook to st's chain. Hooks registered later run
// first within a step (spec §4.B "reverse so later-installed hooks
// override earlier ones", applied at this layer to the hook chain).
func InstallHook(st *State, name string, fn func(step Step, name string, scope *Scope, st *State) (*natus.Value, error)) {
	st.hooks = append(st.hooks, Hook{Name: name, Fn: fn})
}

// Require resolves and loads name, returning its cached module.exports
// (spec §4.I require()).
func (st *State) Require(name string) (*natus.Value, error) {
	canonical := st.canonicalize(name)

	if whitelist, sandbox := st.view.Whitelist(); sandbox {
		if !contains(whitelist, name) {
			return nil, natuserr.Security("require(%q): not in whitelist", name)
		}
	}

	if cached, ok := st.cache[canonical]; ok {
		st.metrics.RequireCacheHit()
		return cached, nil
	}
	st.metrics.RequireCacheMiss()

	for i := len(st.hooks) - 1; i >= 0; i-- {
		h := st.hooks[i]
		st.metrics.RequireHookInvoked(string(StepResolve))
		res, err := h.Fn(StepResolve, canonical, nil, st)
		if err != nil {
			return nil, err
		}
		if res != nil {
			if res.IsException() {
				return nil, natuserr.ImportWrap(res.AsError(), "require(%q): resolve hook %s failed", name, h.Name)
			}
			st.cache[canonical] = res
			return res, nil
		}
	}

	scope, err := st.buildScope(canonical)
	if err != nil {
		return nil, err
	}

	var loaded *natus.Value
	for i := len(st.hooks) - 1; i >= 0; i-- {
		h := st.hooks[i]
		st.metrics.RequireHookInvoked(string(StepLoad))
		res, err := h.Fn(StepLoad, canonical, scope, st)
		if err != nil {
			return nil, err
		}
		if res != nil {
			if res.IsException() {
				return nil, natuserr.ImportWrap(res.AsError(), "require(%q): load hook %s failed", name, h.Name)
			}
			loaded = res
			break
		}
	}
	if loaded == nil {
		return nil, natuserr.Import("require(%q): no loader hook resolved the module", name)
	}

	st.cache[canonical] = scope.Exports
	if _, sandbox := st.view.Whitelist(); !sandbox {
		uriVal, err := st.ctx.String("file://" + canonical)
		if err == nil {
			scope.Module.Set("uri", uriVal)
		}
	}

	for i := len(st.hooks) - 1; i >= 0; i-- {
		h := st.hooks[i]
		st.metrics.RequireHookInvoked(string(StepProcess))
		if _, err := h.Fn(StepProcess, canonical, scope, st); err != nil {
			return nil, err
		}
	}

	return scope.Exports, nil
}

// canonicalize resolves a relative name ("./x", "../x") against the top
// of the evaluation stack; an absolute module name is returned as-is
// (spec §4.I "Relative resolution").
func (st *State) canonicalize(name string) string {
	if strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") {
		if len(st.evalStack) > 0 {
			base := st.evalStack[len(st.evalStack)-1]
			return joinPath(base, name)
		}
	}
	return name
}

// PushEval pushes dir onto the evaluation stack that canonicalize
// resolves relative names against. Nothing pushes automatically:
// neither Require nor the native loader calls PushEval or PopEval
// around evaluating a module, so the stack holds only what callers push.
func (st *State) PushEval(dir string) { st.evalStack = append(st.evalStack, dir) }

// PopEval pops the top of the evaluation stack.
func (st *State) PopEval() {
	if len(st.evalStack) > 0 {
		st.evalStack = st.evalStack[:len(st.evalStack)-1]
	}
}

// Path returns the configured module search path.
func (st *State) Path() []string { return st.view.Path() }

// OriginPermitted reports whether uri is permitted under
// natus.origins.whitelist/blacklist (spec §4.I "origin_permitted").
func (st *State) OriginPermitted(uri string) bool {
	whitelist, present := st.view.OriginsWhitelist()
	if !present {
		return true
	}
	blacklist := st.view.OriginsBlacklist()

	permitted := false
	for _, m := range st.origins {
		for _, entry := range whitelist {
			if m(entry, uri) {
				permitted = true
			}
		}
	}
	if !permitted {
		return false
	}
	for _, m := range st.origins {
		for _, entry := range blacklist {
			if m(entry, uri) {
				return false
			}
		}
	}
	return true
}

// buildScope materializes the exports/module pair for one require() call
// (spec §4.I step 2), in the *same* Context (and so the same backend
// runtime) as the caller — a second runtime would make the returned
// exports unusable from the script that required them. A loader hook
// (nativeloader in particular) is expected to run the module's source
// wrapped as a function taking (exports, module, require, __filename,
// __dirname), the same way Node's module wrapper does, rather than by
// populating a standalone global object.
func (st *State) buildScope(canonical string) (*Scope, error) {
	exports, err := st.ctx.NewObject(nil, nil)
	if err != nil {
		return nil, err
	}
	moduleObj, err := st.ctx.NewObject(nil, nil)
	if err != nil {
		return nil, err
	}
	idVal, err := st.ctx.String(canonical)
	if err != nil {
		return nil, err
	}
	if err := moduleObj.Set("id", idVal); err != nil {
		return nil, err
	}
	if err := moduleObj.Set("exports", exports); err != nil {
		return nil, err
	}
	return &Scope{Ctx: st.ctx, Exports: exports, Module: moduleObj, ModuleID: canonical}, nil
}

func toStringArray(ctx *natus.Context, ss []string) (*natus.Value, error) {
	vals := make([]*natus.Value, len(ss))
	for i, s := range ss {
		v, err := ctx.String(s)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return ctx.Array(vals...)
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
