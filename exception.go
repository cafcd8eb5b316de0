package natus

import (
	"github.com/r3e-network/natus/backend"
	"github.com/r3e-network/natus/pkg/natuserr"
)

// Throw constructs an exception-flagged Value from a NatusError, for a
// native function or Class hook to return as its result (spec §7 error
// taxonomy crossing into script space as a JS Error with
// {name, message, code}).
func (c *Context) Throw(e *natuserr.NatusError) (*Value, error) {
	errObj, err := c.NewObject(nil, nil)
	if err != nil {
		return nil, err
	}
	name, _ := c.String(string(e.Type))
	msg, _ := c.String(e.Message)
	code, _ := c.String(e.Code)
	if err := errObj.Set("name", name); err != nil {
		return nil, err
	}
	if err := errObj.Set("message", msg); err != nil {
		return nil, err
	}
	if err := errObj.Set("code", code); err != nil {
		return nil, err
	}
	return markException(errObj), nil
}

// ToException returns a Value identical to v but flagged as an
// exception (spec §4.E "to_exception"): a native function or Class hook
// can flag any value it already holds — a plain string, a number, an
// existing object — as the thrown result, without Throw's overhead of
// building a fresh {name, message, code} error object.
func (v *Value) ToException() *Value {
	return markException(v)
}

// markException returns a Value that behaves exactly like v but reports
// IsException() true, without mutating a Value the caller might still
// hold a non-exceptional reference to elsewhere. Throw builds a plain
// object via NewObject, which the backend itself never flags as
// exceptional since it isn't the result of a failed vtable call.
func markException(v *Value) *Value {
	clone := *v
	clone.flags |= backend.FlagException
	return &clone
}

// AsError converts an exception-flagged Value into a Go error, coercing
// its message property to a string. Returns nil if v is not an
// exception.
func (v *Value) AsError() error {
	if !v.IsException() {
		return nil
	}
	kind := natuserr.KindLogic
	code := ""
	message := "unknown error"
	if nameVal, err := v.Get("name"); err == nil {
		if s, err := nameVal.ToString(); err == nil && s != "" {
			kind = natuserr.Kind(s)
		}
		nameVal.Drop()
	}
	if codeVal, err := v.Get("code"); err == nil {
		if s, err := codeVal.ToString(); err == nil {
			code = s
		}
		codeVal.Drop()
	}
	if msgVal, err := v.Get("message"); err == nil {
		if s, err := msgVal.ToString(); err == nil && s != "" {
			message = s
		}
		msgVal.Drop()
	}
	return natuserr.New(kind, code, message)
}
