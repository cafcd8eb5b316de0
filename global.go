package natus

import (
	"github.com/r3e-network/natus/backend"
)

// Global returns the Context's global object, re-fetching it from the
// backend (spec §4.D GetGlobal) rather than caching across calls, so it
// always reflects the live global even if the caller dropped their first
// reference.
func (c *Context) Global() (*Value, error) {
	raw, flags, err := c.engine.vtable.GetGlobal(c.raw, nil)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// Undefined returns the Context's undefined singleton, wrapped as a
// Value.
func (c *Context) Undefined() (*Value, error) {
	raw, flags, err := c.engine.vtable.NewUndefined(c.raw)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// Null returns the Context's null singleton, wrapped as a Value.
func (c *Context) Null() (*Value, error) {
	raw, flags, err := c.engine.vtable.NewNull(c.raw)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// Bool constructs a boolean Value.
func (c *Context) Bool(b bool) (*Value, error) {
	raw, flags, err := c.engine.vtable.NewBool(c.raw, b)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// Number constructs a numeric Value.
func (c *Context) Number(n float64) (*Value, error) {
	raw, flags, err := c.engine.vtable.NewNumber(c.raw, n)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// String constructs a UTF-8 string Value.
func (c *Context) String(s string) (*Value, error) {
	raw, flags, err := c.engine.vtable.NewStringUTF8(c.raw, s)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// StringUTF16 constructs a string Value from UTF-16 code units, for
// callers bridging from a UTF-16-native host (spec §9 open question;
// Natus's own boundary is UTF-8, see backend/gojabackend/utf16.go).
func (c *Context) StringUTF16(units []uint16) (*Value, error) {
	raw, flags, err := c.engine.vtable.NewStringUTF16(c.raw, units)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// Array constructs an Array Value from elems.
func (c *Context) Array(elems ...*Value) (*Value, error) {
	rawElems := make([]backend.RawHandle, len(elems))
	for i, e := range elems {
		rawElems[i] = e.raw
	}
	raw, flags, err := c.engine.vtable.NewArray(c.raw, rawElems)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// NewObject constructs a plain Object Value, or one backed by class and
// priv if class is non-nil (spec §3 Class, §4.F).
func (c *Context) NewObject(class *backend.Class, priv any) (*Value, error) {
	raw, flags, err := c.engine.vtable.NewObject(c.raw, class, priv)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// Function wraps fn as a callable Value (spec §3 "native functions" —
// the simpler attachment point alongside Class.Call).
func (c *Context) Function(name string, fn backend.NativeFunction) (*Value, error) {
	raw, flags, err := c.engine.vtable.NewFunction(c.raw, name, fn)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// Evaluate compiles and runs source as script text in this Context.
// thisVal is handed to the backend's Evaluate; the goja backend ignores
// it and runs top-level code with the global object as this.
// A syntax or runtime error surfaces as a Value with IsException true,
// not a Go error — only loader-level failures (nil backend, etc.) return
// a Go error (spec §4.F "exception as orthogonal flag").
func (c *Context) Evaluate(source, filename string, line int, thisVal *Value) (*Value, error) {
	var thisRaw backend.RawHandle
	if thisVal != nil {
		thisRaw = thisVal.raw
	}
	raw, flags, err := c.engine.vtable.Evaluate(c.raw, thisRaw, source, filename, line)
	if err != nil {
		return nil, err
	}
	return newValue(c, raw, flags), nil
}

// Validate parses source without executing it, if the backend supports
// the optional backend.Validator capability. Returns nil if the backend
// does not implement it (validation then has to happen via Evaluate).
func (c *Context) Validate(source, filename string) error {
	v, ok := c.engine.vtable.(backend.Validator)
	if !ok {
		return nil
	}
	return v.Validate(c.raw, source, filename)
}
