package natus

import (
	"strconv"
	"strings"

	"github.com/r3e-network/natus/backend"
	"github.com/r3e-network/natus/internal/memgraph"
	"github.com/r3e-network/natus/pkg/natuserr"
)

// Value is a handle into a backend's heap, wrapped with the memgraph
// lifetime tracking and type memoization the façade adds on top of the
// raw vtable (spec §3 Value). Values are not safe for concurrent use;
// like everything else in a Context, they belong to one logical thread
// of execution (spec §5).
type Value struct {
	ctx   *Context
	raw   backend.RawHandle
	flags backend.Flags
	node  *memgraph.Node

	typeTag   backend.TypeTag
	typeKnown bool
}

// wrapEphemeral wraps a RawHandle the façade does not own the lifetime
// of — a Class hook's obj/key/value arguments, for instance, which
// belong to the backend's own call frame. An ephemeral Value needs no
// Drop; Drop is a no-op when node is nil.
func wrapEphemeral(ctx *Context, raw backend.RawHandle, flags backend.Flags) *Value {
	return &Value{ctx: ctx, raw: raw, flags: flags}
}

func newValue(ctx *Context, raw backend.RawHandle, flags backend.Flags) *Value {
	v := &Value{ctx: ctx, raw: raw, flags: flags, node: memgraph.New(ctx.node)}
	if ctx.engine.metrics != nil {
		ctx.engine.metrics.ValueAllocated()
	}
	v.node.DestructorSet(func() {
		b := ctx.engine.vtable
		if flags.Unlock() {
			b.ValUnlock(ctx.raw, raw)
		}
		if flags.Free() {
			b.ValFree(raw)
		}
	})
	return v
}

// Context returns the Context this Value belongs to.
func (v *Value) Context() *Context { return v.ctx }

// Raw exposes the backend handle for packages (require, args,
// jsonbridge) that need to pass it straight back into the vtable.
func (v *Value) Raw() backend.RawHandle { return v.raw }

// Drop releases the façade's reference to the Value (spec §3 Value's
// reference-count invariant). After Drop, v must not be used again. A
// no-op on an ephemeral Value (see wrapEphemeral).
func (v *Value) Drop() {
	if v.node == nil {
		return
	}
	memgraph.Decref(v.ctx.node, v.node)
}

// IsException reports whether this Value represents a thrown error
// rather than a normal result (spec §4.F "exception as orthogonal
// flag").
func (v *Value) IsException() bool { return v.flags.Exception() }

// Type returns the Value's dynamic type, memoizing the first query
// against the backend (spec §3 Value invariant: "type is queried once
// and cached").
func (v *Value) Type() backend.TypeTag {
	if !v.typeKnown {
		v.typeTag = v.ctx.engine.vtable.GetType(v.ctx.raw, v.raw)
		v.typeKnown = true
	}
	return v.typeTag
}

func (v *Value) IsUndefined() bool { return v.Type() == backend.TypeUndefined }
func (v *Value) IsNull() bool      { return v.Type() == backend.TypeNull }
func (v *Value) IsBoolean() bool   { return v.Type() == backend.TypeBoolean }
func (v *Value) IsNumber() bool    { return v.Type() == backend.TypeNumber }
func (v *Value) IsString() bool    { return v.Type() == backend.TypeString }
func (v *Value) IsArray() bool     { return v.Type() == backend.TypeArray }
func (v *Value) IsFunction() bool  { return v.Type() == backend.TypeFunction }
func (v *Value) IsObject() bool {
	t := v.Type()
	return t == backend.TypeObject || t == backend.TypeArray || t == backend.TypeFunction
}

// ToBool coerces the Value per the backend's own truthiness rules.
func (v *Value) ToBool() bool { return v.ctx.engine.vtable.ToBool(v.ctx.raw, v.raw) }

// ToDouble coerces the Value to a float64.
func (v *Value) ToDouble() float64 { return v.ctx.engine.vtable.ToDouble(v.ctx.raw, v.raw) }

// ToString coerces the Value to a Go string via the backend's UTF-8
// path (spec §9: Natus standardizes on UTF-8 everywhere above the
// backend boundary).
func (v *Value) ToString() (string, error) {
	return v.ctx.engine.vtable.ToStringUTF8(v.ctx.raw, v.raw)
}

// Duplicate creates a second façade Value referencing the same backend
// handle, incrementing the backend's own refcount via ValDuplicate
// rather than the memgraph edge (spec §3 Value: "duplicate asks the
// backend for a fresh handle, not a second façade reference to the same
// node").
func (v *Value) Duplicate() (*Value, error) {
	raw, err := v.ctx.engine.vtable.ValDuplicate(v.ctx.raw, v.raw)
	if err != nil {
		return nil, natuserr.Wrap(natuserr.KindLogic, "DUP_1", "duplicate value", err)
	}
	return newValue(v.ctx, raw, v.flags), nil
}

// --- Property access (spec §3 Value, §4.F trampolines) ---

// Get looks up a named property.
func (v *Value) Get(name string) (*Value, error) {
	id, _, err := v.ctx.engine.vtable.NewStringUTF8(v.ctx.raw, name)
	if err != nil {
		return nil, err
	}
	raw, flags, err := v.ctx.engine.vtable.Get(v.ctx.raw, v.raw, id)
	if err != nil {
		return nil, natuserr.TypeErrorf("get %q: %v", name, err)
	}
	return newValue(v.ctx, raw, flags), nil
}

// Set assigns a named property.
func (v *Value) Set(name string, value *Value) error {
	return v.SetAttrs(name, value, backend.AttrNone)
}

// SetAttrs assigns a named property with explicit attributes (spec §3
// set_recursive's leaf application needs AttrReadOnly, among others).
func (v *Value) SetAttrs(name string, value *Value, attrs backend.PropAttrs) error {
	id, _, err := v.ctx.engine.vtable.NewStringUTF8(v.ctx.raw, name)
	if err != nil {
		return err
	}
	if err := v.ctx.engine.vtable.Set(v.ctx.raw, v.raw, id, value.raw, attrs); err != nil {
		return natuserr.TypeErrorf("set %q: %v", name, err)
	}
	return nil
}

// Delete removes a named property, reporting whether the deletion
// succeeded (true also when the property did not exist, as with JS
// delete).
func (v *Value) Delete(name string) (bool, error) {
	id, _, err := v.ctx.engine.vtable.NewStringUTF8(v.ctx.raw, name)
	if err != nil {
		return false, err
	}
	return v.ctx.engine.vtable.Del(v.ctx.raw, v.raw, id)
}

// Keys enumerates v's own property names as an array Value (spec §4.F
// Enumerate trampoline).
func (v *Value) Keys() (*Value, error) {
	raw, flags, err := v.ctx.engine.vtable.Enumerate(v.ctx.raw, v.raw)
	if err != nil {
		return nil, err
	}
	return newValue(v.ctx, raw, flags), nil
}

// GetRecursive walks a "a.b.c"-style dotted path (spec §3 "get_recursive"),
// returning an Undefined Value (not an error) at the first segment that
// does not resolve, matching JS's own property-miss semantics.
func (v *Value) GetRecursive(path string) (*Value, error) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		next, err := cur.Get(seg)
		if err != nil {
			return nil, err
		}
		if cur != v {
			cur.Drop()
		}
		cur = next
		if cur.IsUndefined() || cur.IsNull() {
			return cur, nil
		}
	}
	return cur, nil
}

// SetRecursive walks (and, for object segments, creates) a dotted path
// and assigns value at the leaf (spec §3 "set_recursive" / "make_path").
// Intermediate segments that resolve to a non-object are a TypeError:
// set_recursive never overwrites a scalar with an object on the way
// down.
func (v *Value) SetRecursive(path string, value *Value, attrs backend.PropAttrs) error {
	segs := strings.Split(path, ".")
	cur := v
	for _, seg := range segs[:len(segs)-1] {
		next, err := cur.Get(seg)
		if err != nil {
			return err
		}
		if next.IsUndefined() || next.IsNull() {
			obj, err := cur.ctx.NewObject(nil, nil)
			if err != nil {
				return err
			}
			if err := cur.Set(seg, obj); err != nil {
				return err
			}
			if cur != v {
				cur.Drop()
			}
			cur = obj
			continue
		}
		if !next.IsObject() {
			return natuserr.TypeErrorf("set_recursive %q: segment %q is not an object", path, seg)
		}
		if cur != v {
			cur.Drop()
		}
		cur = next
	}
	leaf := segs[len(segs)-1]
	err := cur.SetAttrs(leaf, value, attrs)
	if cur != v {
		cur.Drop()
	}
	return err
}

// --- Calling (spec §3 Value "call"/"construct", §4.F Call trampoline) ---

// Call invokes v as a function with the given this-binding and
// arguments.
func (v *Value) Call(this *Value, args ...*Value) (*Value, error) {
	var thisRaw backend.RawHandle
	if this != nil {
		thisRaw = this.raw
	}
	rawArgs := make([]backend.RawHandle, len(args))
	for i, a := range args {
		rawArgs[i] = a.raw
	}
	raw, flags, err := v.ctx.engine.vtable.Call(v.ctx.raw, v.raw, thisRaw, rawArgs)
	if err != nil {
		return nil, natuserr.Wrap(natuserr.KindLogic, "CALL_1", "call failed", err)
	}
	return newValue(v.ctx, raw, flags), nil
}

// --- Array helpers (spec §8 S1: array round trip via push/pop) ---

// Push appends value to v, which must be an Array Value, by assigning
// its length-indexed property (mirrors what the backend's own Array
// object does for a numeric index beyond its current length).
func (v *Value) Push(value *Value) error {
	lenVal, err := v.Get("length")
	if err != nil {
		return err
	}
	defer lenVal.Drop()
	idx := int(lenVal.ToDouble())
	return v.Set(strconv.Itoa(idx), value)
}

// Pop removes and returns the last element of v, which must be an Array
// Value. Popping an empty array returns an Undefined Value.
func (v *Value) Pop() (*Value, error) {
	lenVal, err := v.Get("length")
	if err != nil {
		return nil, err
	}
	length := int(lenVal.ToDouble())
	lenVal.Drop()
	if length == 0 {
		return v.ctx.Undefined()
	}
	idx := strconv.Itoa(length - 1)
	elem, err := v.Get(idx)
	if err != nil {
		return nil, err
	}
	if _, err := v.Delete(idx); err != nil {
		return nil, err
	}
	// delete leaves a hole without shrinking length (JS semantics); Pop
	// truncates explicitly to match Array.prototype.pop.
	newLen, err := v.ctx.Number(float64(length - 1))
	if err != nil {
		return nil, err
	}
	if err := v.Set("length", newLen); err != nil {
		return nil, err
	}
	return elem, nil
}

// --- Private data (spec §3 Private map, component B via backend.GetPrivate) ---

// Private returns the PrivMap attached to v, if the backend exposes one
// (only objects created through NewObject/NewGlobal/NewFunction carry
// one).
func (v *Value) Private() (backend.PrivMap, bool) {
	return v.ctx.engine.vtable.GetPrivate(v.ctx.raw, v.raw)
}

// Equal reports whether v and other are equal, strictly (===) or
// loosely (==) per the strict argument.
func (v *Value) Equal(other *Value, strict bool) bool {
	return v.ctx.engine.vtable.Equal(v.ctx.raw, v.raw, other.raw, strict)
}
