package gojabackend

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/r3e-network/natus/backend"
)

// Backend is the goja-backed implementation of backend.Backend.
type Backend struct{}

// New returns the goja backend vtable. It holds no state of its own:
// every piece of per-runtime state lives in ctx.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string { return name }

func (b *Backend) CtxFree(rc backend.RawCtx) {
	// goja.Runtime has no explicit teardown; it is garbage collected
	// once the last Go reference to it (held by ctx) drops.
}

func (b *Backend) ValUnlock(rc backend.RawCtx, raw backend.RawHandle) {
	// goja values are always reachable only through their Go references;
	// "unlock" is a no-op for this backend, unlike an engine with an
	// explicit root table that must be told to stop pinning a value.
}

func (b *Backend) ValDuplicate(rc backend.RawCtx, raw backend.RawHandle) (backend.RawHandle, error) {
	// goja values are immutable handles; duplication is just another
	// reference to the same underlying goja.Value.
	return wrap(unwrap(raw)), nil
}

func (b *Backend) ValFree(raw backend.RawHandle) {
	// No explicit free; Go's GC reclaims the goja.Value once
	// unreferenced.
}

func (b *Backend) NewGlobal(parentCtx backend.RawCtx, parentVal backend.RawHandle, priv backend.PrivMap) (backend.RawCtx, backend.RawHandle, backend.Flags, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	c := &ctx{vm: vm}
	global := vm.GlobalObject()
	if priv != nil {
		c.setPriv(global, priv)
	}
	return c, wrap(global), backend.FlagUnlock | backend.FlagFree, nil
}

func (b *Backend) NewBool(rc backend.RawCtx, v bool) (backend.RawHandle, backend.Flags, error) {
	return wrap(vmOf(rc).ToValue(v)), 0, nil
}

func (b *Backend) NewNumber(rc backend.RawCtx, v float64) (backend.RawHandle, backend.Flags, error) {
	return wrap(vmOf(rc).ToValue(v)), 0, nil
}

func (b *Backend) NewStringUTF8(rc backend.RawCtx, v string) (backend.RawHandle, backend.Flags, error) {
	return wrap(vmOf(rc).ToValue(v)), 0, nil
}

func (b *Backend) NewStringUTF16(rc backend.RawCtx, v []uint16) (backend.RawHandle, backend.Flags, error) {
	return wrap(vmOf(rc).ToValue(utf16Decode(v))), 0, nil
}

func (b *Backend) NewArray(rc backend.RawCtx, elems []backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
	vm := vmOf(rc)
	items := make([]interface{}, len(elems))
	for i, e := range elems {
		items[i] = unwrap(e)
	}
	return wrap(vm.NewArray(items...)), backend.FlagFree, nil
}

func (b *Backend) NewFunction(rc backend.RawCtx, fname string, fn backend.NativeFunction) (backend.RawHandle, backend.Flags, error) {
	vm := vmOf(rc)
	jsFn := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return callNativeFunction(vm, fn, call)
	})
	if obj, ok := jsFn.(*goja.Object); ok {
		_ = obj.Set("name", fname)
	}
	return wrap(jsFn), backend.FlagFree, nil
}

func (b *Backend) NewObject(rc backend.RawCtx, class *backend.Class, priv any) (backend.RawHandle, backend.Flags, error) {
	c := unwrapCtx(rc)
	if class == nil {
		obj := c.vm.NewObject()
		if priv != nil {
			if pm, ok := priv.(backend.PrivMap); ok {
				c.setPriv(obj, pm)
			}
		}
		return wrap(obj), backend.FlagFree, nil
	}
	obj := newClassObject(c, class)
	if priv != nil {
		if pm, ok := priv.(backend.PrivMap); ok {
			c.setPriv(obj, pm)
		}
	}
	return wrap(obj), backend.FlagFree, nil
}

func (b *Backend) NewNull(rc backend.RawCtx) (backend.RawHandle, backend.Flags, error) {
	return wrap(goja.Null()), 0, nil
}

func (b *Backend) NewUndefined(rc backend.RawCtx) (backend.RawHandle, backend.Flags, error) {
	return wrap(goja.Undefined()), 0, nil
}

func (b *Backend) ToBool(rc backend.RawCtx, raw backend.RawHandle) bool {
	return unwrap(raw).ToBoolean()
}

func (b *Backend) ToDouble(rc backend.RawCtx, raw backend.RawHandle) float64 {
	return unwrap(raw).ToFloat()
}

func (b *Backend) ToStringUTF8(rc backend.RawCtx, raw backend.RawHandle) (string, error) {
	return unwrap(raw).String(), nil
}

func (b *Backend) ToStringUTF16(rc backend.RawCtx, raw backend.RawHandle) ([]uint16, error) {
	return utf16Encode(unwrap(raw).String()), nil
}

func (b *Backend) Del(rc backend.RawCtx, obj backend.RawHandle, id backend.RawHandle) (bool, error) {
	o := toObject(obj)
	if o == nil {
		return false, fmt.Errorf("gojabackend: del on non-object")
	}
	return o.Delete(unwrap(id).String()), nil
}

func (b *Backend) Get(rc backend.RawCtx, obj backend.RawHandle, id backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
	o := toObject(obj)
	if o == nil {
		return wrap(goja.Undefined()), 0, nil
	}
	return wrap(o.Get(unwrap(id).String())), 0, nil
}

func (b *Backend) Set(rc backend.RawCtx, obj backend.RawHandle, id backend.RawHandle, value backend.RawHandle, attrs backend.PropAttrs) error {
	o := toObject(obj)
	if o == nil {
		return fmt.Errorf("gojabackend: set on non-object")
	}
	key := unwrap(id).String()
	if attrs&(backend.AttrReadOnly|backend.AttrDontEnum|backend.AttrDontDelete) != 0 {
		return o.DefineDataProperty(key, unwrap(value),
			boolFlag(attrs&backend.AttrReadOnly == 0),
			boolFlag(attrs&backend.AttrDontDelete == 0),
			boolFlag(attrs&backend.AttrDontEnum == 0),
		)
	}
	return o.Set(key, unwrap(value))
}

func boolFlag(b bool) goja.PropertyFlag {
	if b {
		return goja.FLAG_TRUE
	}
	return goja.FLAG_FALSE
}

func (b *Backend) Enumerate(rc backend.RawCtx, obj backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
	vm := vmOf(rc)
	o := toObject(obj)
	if o == nil {
		return wrap(vm.NewArray()), backend.FlagFree, nil
	}
	keys := o.Keys()
	items := make([]interface{}, len(keys))
	for i, k := range keys {
		items[i] = k
	}
	return wrap(vm.NewArray(items...)), backend.FlagFree, nil
}

func (b *Backend) Call(rc backend.RawCtx, fn, this backend.RawHandle, args []backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
	callable, ok := goja.AssertFunction(unwrap(fn))
	if !ok {
		return nil, 0, fmt.Errorf("gojabackend: value is not callable")
	}
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = unwrap(a)
	}
	res, err := callable(unwrap(this), jsArgs...)
	if err != nil {
		return exceptionFromError(vmOf(rc), err)
	}
	return wrap(res), 0, nil
}

func (b *Backend) Evaluate(rc backend.RawCtx, this backend.RawHandle, source, filename string, line int) (backend.RawHandle, backend.Flags, error) {
	vm := vmOf(rc)
	prog, err := goja.Compile(filename, source, false)
	if err != nil {
		return exceptionFromError(vm, err)
	}
	res, err := vm.RunProgram(prog)
	if err != nil {
		return exceptionFromError(vm, err)
	}
	return wrap(res), 0, nil
}

func (b *Backend) GetPrivate(rc backend.RawCtx, obj backend.RawHandle) (backend.PrivMap, bool) {
	o := toObject(obj)
	if o == nil {
		return nil, false
	}
	return unwrapCtx(rc).getPriv(o)
}

func (b *Backend) GetGlobal(rc backend.RawCtx, obj backend.RawHandle) (backend.RawHandle, backend.Flags, error) {
	return wrap(vmOf(rc).GlobalObject()), 0, nil
}

func (b *Backend) GetType(rc backend.RawCtx, raw backend.RawHandle) backend.TypeTag {
	v := unwrap(raw)
	switch {
	case goja.IsUndefined(v):
		return backend.TypeUndefined
	case goja.IsNull(v):
		return backend.TypeNull
	}
	if o, ok := v.(*goja.Object); ok {
		if _, callable := goja.AssertFunction(v); callable {
			return backend.TypeFunction
		}
		switch o.ClassName() {
		case "Array":
			return backend.TypeArray
		default:
			return backend.TypeObject
		}
	}
	switch v.Export().(type) {
	case bool:
		return backend.TypeBoolean
	case string:
		return backend.TypeString
	case int64, float64, int, int32:
		return backend.TypeNumber
	default:
		return backend.TypeObject
	}
}

func (b *Backend) Equal(rc backend.RawCtx, a, b2 backend.RawHandle, strict bool) bool {
	va, vb := unwrap(a), unwrap(b2)
	if strict {
		return va.StrictEquals(vb)
	}
	return va.Equals(vb)
}

// toObject returns obj as a *goja.Object, or nil if it is not one.
func toObject(raw backend.RawHandle) *goja.Object {
	o, ok := unwrap(raw).(*goja.Object)
	if !ok {
		return nil
	}
	return o
}

// exceptionFromError converts a goja execution error (a thrown JS value,
// wrapped in *goja.Exception, or a compile/runtime Go error) into a
// RawHandle flagged FlagException, per spec §4.D's execution contract:
// failures surface as an exceptional Value, never a Go error crossing
// back into the façade's success path.
func exceptionFromError(vm *goja.Runtime, err error) (backend.RawHandle, backend.Flags, error) {
	if exc, ok := err.(*goja.Exception); ok {
		return wrap(exc.Value()), backend.FlagException, nil
	}
	return wrap(vm.ToValue(err.Error())), backend.FlagException, nil
}
