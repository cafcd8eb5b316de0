package natus

import (
	"github.com/r3e-network/natus/backend"
)

// ClassSpec is the Go-idiomatic surface for a Class's trap hooks (spec
// §3 Class, §4.F): each hook works in terms of *Value rather than raw
// backend handles. A nil hook leaves that trap unset, matching
// backend.ClassHooks's per-trap bitmask. Hook arguments are ephemeral
// (see wrapEphemeral) — do not hold onto them past the call.
type ClassSpec struct {
	Get       func(obj, key *Value) (*Value, error)
	Set       func(obj, key, value *Value) (*Value, error)
	Delete    func(obj, key *Value) (*Value, error)
	Enumerate func(obj *Value) (*Value, error)
	Call      func(obj, this *Value, args []*Value) (*Value, error)

	// Free runs when the backend garbage-collects the owning object
	// (spec §4.F finalize trampoline).
	Free func()
}

// NewClass builds a *backend.Class bound to ctx from spec, wrapping
// each Go hook so it can be installed via Context.NewObject. Hooks
// return a plain Value and error; a hook returning (nil, nil) is
// translated to "not intercepted" (undefined, no exception flag), the
// signal backends use to fall through to their own default behavior
// (spec §8 property 7).
func NewClass(ctx *Context, spec ClassSpec) *backend.Class {
	c := &backend.Class{Free: spec.Free}

	if spec.Get != nil {
		c.Hooks |= backend.HookGet
		c.Get = func(obj, id backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
			res, err := spec.Get(wrapEphemeral(ctx, obj, 0), wrapEphemeral(ctx, id, 0))
			return resultToRaw(ctx, res, err)
		}
	}
	if spec.Set != nil {
		c.Hooks |= backend.HookSet
		c.Set = func(obj, id, value backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
			res, err := spec.Set(wrapEphemeral(ctx, obj, 0), wrapEphemeral(ctx, id, 0), wrapEphemeral(ctx, value, 0))
			return resultToRaw(ctx, res, err)
		}
	}
	if spec.Delete != nil {
		c.Hooks |= backend.HookDelete
		c.Del = func(obj, id backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
			res, err := spec.Delete(wrapEphemeral(ctx, obj, 0), wrapEphemeral(ctx, id, 0))
			return resultToRaw(ctx, res, err)
		}
	}
	if spec.Enumerate != nil {
		c.Hooks |= backend.HookEnumerate
		c.Enumerate = func(obj backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
			res, err := spec.Enumerate(wrapEphemeral(ctx, obj, 0))
			return resultToRaw(ctx, res, err)
		}
	}
	if spec.Call != nil {
		c.Hooks |= backend.HookCall
		c.Call = func(obj, this backend.RawHandle, rawArgs []backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
			args := make([]*Value, len(rawArgs))
			for i, a := range rawArgs {
				args[i] = wrapEphemeral(ctx, a, 0)
			}
			res, err := spec.Call(wrapEphemeral(ctx, obj, 0), wrapEphemeral(ctx, this, 0), args)
			return resultToRaw(ctx, res, err)
		}
	}
	return c
}

// resultToRaw translates a Go hook's (*Value, error) outcome into the
// vtable's (RawHandle, Flags, error) trampoline contract. An error is
// passed straight through as a Go error (a host-side failure); a
// returned Value carries its own exception flag forward if it has one.
func resultToRaw(ctx *Context, res *Value, err error) (backend.RawHandle, backend.Flags, error) {
	if err != nil {
		return nil, 0, err
	}
	if res == nil {
		return nil, 0, nil
	}
	return res.raw, res.flags, nil
}

// NativeFunc adapts a Go function taking façade Values into a
// backend.NativeFunction, the simpler attachment point for a plain
// callable object (spec §3 "native functions").
func NativeFunc(ctx *Context, fn func(this *Value, args []*Value) (*Value, error)) backend.NativeFunction {
	return func(this backend.RawHandle, rawArgs []backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
		args := make([]*Value, len(rawArgs))
		for i, a := range rawArgs {
			args[i] = wrapEphemeral(ctx, a, 0)
		}
		res, err := fn(wrapEphemeral(ctx, this, 0), args)
		return resultToRaw(ctx, res, err)
	}
}
