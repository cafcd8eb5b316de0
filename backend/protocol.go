// Package backend defines the vtable every JavaScript engine plugin
// implements (spec §4.D). The loader that discovers and verifies
// plugins (spec §4.C) lives in backend/pluginloader. Concrete backends
// live in subpackages (backend/gojabackend ships in-process; others load
// as plugins).
package backend

import (
	"fmt"

	"github.com/r3e-network/natus/internal/privatemap"
)

// Version is the ABI version every backend's exported vtable must match.
// Bumping it is a breaking change to the plugin ABI described in
// spec §6.
const Version uint32 = 1

// RawHandle is an opaque pointer into a backend's own heap. Backends
// define their own concrete type satisfying this interface (typically a
// thin wrapper around their native value type); the façade never
// inspects a RawHandle's contents, only passes it back to the same
// backend.
type RawHandle interface {
	// Backend identifies which Engine produced this handle, so the
	// façade can catch accidental cross-backend misuse early.
	Backend() string
}

// TypeTag is the dynamic type of a Value, memoized by the façade after
// the first query (spec §3, Value invariant).
type TypeTag int

const (
	TypeUnknown TypeTag = iota
	TypeArray
	TypeBoolean
	TypeFunction
	TypeNull
	TypeNumber
	TypeObject
	TypeString
	TypeUndefined
)

func (t TypeTag) String() string {
	switch t {
	case TypeArray:
		return "array"
	case TypeBoolean:
		return "boolean"
	case TypeFunction:
		return "function"
	case TypeNull:
		return "null"
	case TypeNumber:
		return "number"
	case TypeObject:
		return "object"
	case TypeString:
		return "string"
	case TypeUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Flags describe what the façade must do when a Value handle is
// dropped, and whether the handle is presently flagged exceptional.
// Every creation or execution operation in the vtable returns a Flags
// value alongside the RawHandle it produced (spec §3, §4.D).
type Flags uint8

const (
	// FlagUnlock means the façade must call Backend.ValUnlock on drop.
	FlagUnlock Flags = 1 << iota
	// FlagFree means the façade must call Backend.ValFree on drop,
	// after any FlagUnlock call.
	FlagFree
	// FlagException marks the handle as JS-exceptional: a value that
	// represents a thrown error rather than a normal result.
	FlagException
)

func (f Flags) Unlock() bool    { return f&FlagUnlock != 0 }
func (f Flags) Free() bool      { return f&FlagFree != 0 }
func (f Flags) Exception() bool { return f&FlagException != 0 }

// PropAttrs mirrors the small set of property attributes backends
// support when setting a property (writable/enumerable/configurable are
// engine-default; Natus only needs to distinguish "plain" from
// "read-only", matching what set_recursive's leaf application needs).
type PropAttrs uint8

const (
	AttrNone     PropAttrs = 0
	AttrReadOnly PropAttrs = 1 << iota
	AttrDontEnum
	AttrDontDelete
)

// PropAction identifies which property trampoline operation the backend
// is invoking (spec §4.F).
type PropAction int

const (
	ActionDelete PropAction = iota
	ActionGet
	ActionSet
	ActionEnumerate
)

// ClassHooks is a bitmask telling a backend which of a Class's five
// trap slots are actually installed, so the backend only wires property
// or call traps that exist (spec §3, Class invariant).
type ClassHooks uint8

const (
	HookDelete ClassHooks = 1 << iota
	HookGet
	HookSet
	HookEnumerate
	HookCall
)

// Class is the native handler bundle attached to an object via a
// reserved private key (spec §3 Class, §4.F).
type Class struct {
	Hooks ClassHooks

	Del      func(obj RawHandle, id RawHandle) (RawHandle, Flags, error)
	Get      func(obj RawHandle, id RawHandle) (RawHandle, Flags, error)
	Set      func(obj RawHandle, id RawHandle, value RawHandle) (RawHandle, Flags, error)
	Enumerate func(obj RawHandle) (RawHandle, Flags, error)
	Call     func(obj, this RawHandle, args []RawHandle) (RawHandle, Flags, error)

	// Free runs when the owning object is garbage-collected by the
	// backend (the finalize trampoline, spec §4.F).
	Free func()
}

// NativeFunction is the simpler of the two "native call" attachment
// points: a plain Go closure that Backend.NewFunction wraps as a JS
// function, without a full Class. Calls reach it through the backend's
// own call machinery; the façade's Value.Call has no fast path that
// invokes it directly.
type NativeFunction func(this RawHandle, args []RawHandle) (RawHandle, Flags, error)

// Backend is the abstract vtable every engine plugin implements (spec
// §4.D). A RawCtx is whatever per-context state a backend needs; the
// façade only ever passes back what a given backend itself returned.
type Backend interface {
	Name() string

	// Lifetime
	CtxFree(ctx RawCtx)
	ValUnlock(ctx RawCtx, raw RawHandle)
	ValDuplicate(ctx RawCtx, raw RawHandle) (RawHandle, error)
	ValFree(raw RawHandle)

	// Creation
	NewGlobal(parentCtx RawCtx, parentVal RawHandle, priv PrivMap) (RawCtx, RawHandle, Flags, error)
	NewBool(ctx RawCtx, v bool) (RawHandle, Flags, error)
	NewNumber(ctx RawCtx, v float64) (RawHandle, Flags, error)
	NewStringUTF8(ctx RawCtx, v string) (RawHandle, Flags, error)
	NewStringUTF16(ctx RawCtx, v []uint16) (RawHandle, Flags, error)
	NewArray(ctx RawCtx, elems []RawHandle) (RawHandle, Flags, error)
	NewFunction(ctx RawCtx, name string, priv NativeFunction) (RawHandle, Flags, error)
	NewObject(ctx RawCtx, class *Class, priv any) (RawHandle, Flags, error)
	NewNull(ctx RawCtx) (RawHandle, Flags, error)
	NewUndefined(ctx RawCtx) (RawHandle, Flags, error)

	// Coercion
	ToBool(ctx RawCtx, raw RawHandle) bool
	ToDouble(ctx RawCtx, raw RawHandle) float64
	ToStringUTF8(ctx RawCtx, raw RawHandle) (string, error)
	ToStringUTF16(ctx RawCtx, raw RawHandle) ([]uint16, error)

	// Property
	Del(ctx RawCtx, obj RawHandle, id RawHandle) (bool, error)
	Get(ctx RawCtx, obj RawHandle, id RawHandle) (RawHandle, Flags, error)
	Set(ctx RawCtx, obj RawHandle, id RawHandle, value RawHandle, attrs PropAttrs) error
	Enumerate(ctx RawCtx, obj RawHandle) (RawHandle, Flags, error)

	// Execution
	Call(ctx RawCtx, fn, this RawHandle, args []RawHandle) (RawHandle, Flags, error)
	Evaluate(ctx RawCtx, this RawHandle, source, filename string, line int) (RawHandle, Flags, error)

	// Introspection
	GetPrivate(ctx RawCtx, obj RawHandle) (PrivMap, bool)
	GetGlobal(ctx RawCtx, obj RawHandle) (RawHandle, Flags, error)
	GetType(ctx RawCtx, raw RawHandle) TypeTag
	Equal(ctx RawCtx, a, b RawHandle, strict bool) bool
}

// RawCtx is an opaque per-context handle a backend hands back from
// NewGlobal and expects verbatim on every later call.
type RawCtx interface {
	Backend() string
}

// PrivMap is the per-object keyed native-data store (spec §3 Private
// map, component B). It is a type alias rather than a local interface so
// every layer — backend, façade, require — shares the exact same
// concrete type instead of re-deriving a structurally-equivalent one.
type PrivMap = *privatemap.Map

// VersionError reports a plugin whose vtable version does not match
// Version.
type VersionError struct {
	Name string
	Got  uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("backend %q: vtable version %d, want %d", e.Name, e.Got, Version)
}
