package gojabackend

import (
	"github.com/dop251/goja"

	"github.com/r3e-network/natus/backend"
)

// callNativeFunction is the call trampoline (spec §4.F) for functions
// created through NewFunction: it assembles the RawHandle arguments,
// invokes the user's NativeFunction, and translates its outcome back
// into goja's exception mechanism.
//
// A Go panic from inside fn (a bug in the user callback, not a deliberate
// exception) is recovered and re-raised as a JS Error rather than
// unwinding through goja's C-derived call machinery — spec §4.F's "native
// trampolines never throw host-language exceptions across the backend
// boundary".
func callNativeFunction(vm *goja.Runtime, fn backend.NativeFunction, call goja.FunctionCall) (result goja.Value) {
	defer func() {
		if r := recover(); r != nil {
			if v, ok := r.(goja.Value); ok {
				panic(v) // an intentional JS throw from deeper in the call; propagate as-is.
			}
			panic(vm.NewGoError(panicError{r}))
		}
	}()

	args := make([]backend.RawHandle, len(call.Arguments))
	for i, a := range call.Arguments {
		args[i] = wrap(a)
	}

	res, flags, err := fn(wrap(call.This), args)
	if err != nil {
		panic(vm.NewGoError(err))
	}
	if flags.Exception() {
		panic(unwrap(res))
	}
	if res == nil {
		return goja.Undefined()
	}
	return unwrap(res)
}

type panicError struct{ v any }

func (p panicError) Error() string {
	if err, ok := p.v.(error); ok {
		return err.Error()
	}
	return "panic in native function"
}
