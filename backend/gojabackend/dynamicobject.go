package gojabackend

import (
	"runtime"

	"github.com/dop251/goja"

	"github.com/r3e-network/natus/backend"
)

// classObject backs a backend.Class-bearing object with a goja
// DynamicObject, so that JavaScript property access on the object goes
// through the property trampoline (spec §4.F) rather than an ordinary
// goja property store. Properties the class hooks decline to intercept
// (a non-exception Get returning Undefined, per spec §8 property 7) fall
// through to a plain backing map, emulating "the engine's own property
// lookup proceeds".
type classObject struct {
	c     *ctx
	class *backend.Class
	self  *goja.Object // set once by newClassObject, after construction

	data map[string]goja.Value
	keys []string
}

func newClassObject(c *ctx, class *backend.Class) *goja.Object {
	impl := &classObject{c: c, class: class, data: map[string]goja.Value{}}
	obj := c.vm.NewDynamicObject(impl)
	impl.self = obj
	if class.Free != nil {
		// goja has no engine-level GC finalization hook to attach to;
		// runtime.SetFinalizer on the Go-side object is the nearest
		// proxy for spec §4.F's finalize trampoline in a pure-Go
		// backend where the JS heap and the Go heap are the same heap.
		runtime.SetFinalizer(impl, func(*classObject) { class.Free() })
	}
	return obj
}

func (o *classObject) selfHandle() backend.RawHandle { return wrap(o.self) }

// raiseIfNeeded panics with the exception value (if flags marks it one)
// or wraps a Go error as a JS error, per spec §4.D's trampoline
// exception-translation contract. Returns false if nothing needs
// raising.
func (o *classObject) raiseIfNeeded(raw backend.RawHandle, flags backend.Flags, err error) bool {
	if err != nil {
		panic(o.c.vm.NewGoError(err))
	}
	if flags.Exception() {
		panic(unwrap(raw))
	}
	return false
}

func (o *classObject) Get(key string) goja.Value {
	if o.class.Hooks&backend.HookGet != 0 {
		idH := wrap(o.c.vm.ToValue(key))
		res, flags, err := o.class.Get(o.selfHandle(), idH)
		o.raiseIfNeeded(res, flags, err)
		if res != nil && !goja.IsUndefined(unwrap(res)) {
			return unwrap(res)
		}
		// Undefined, non-exception: "not intercepted" (spec §8 property
		// 7) — fall through to the backing store.
	}
	if v, ok := o.data[key]; ok {
		return v
	}
	return nil
}

func (o *classObject) Set(key string, val goja.Value) bool {
	if o.class.Hooks&backend.HookSet != 0 {
		idH := wrap(o.c.vm.ToValue(key))
		res, flags, err := o.class.Set(o.selfHandle(), idH, wrap(val))
		o.raiseIfNeeded(res, flags, err)
		if res != nil && unwrap(res).ToBoolean() {
			return true
		}
	}
	if _, existed := o.data[key]; !existed {
		o.keys = append(o.keys, key)
	}
	o.data[key] = val
	return true
}

func (o *classObject) Has(key string) bool {
	if _, ok := o.data[key]; ok {
		return true
	}
	if o.class.Hooks&backend.HookGet == 0 {
		return false
	}
	return o.Get(key) != nil
}

func (o *classObject) Delete(key string) bool {
	if o.class.Hooks&backend.HookDelete != 0 {
		idH := wrap(o.c.vm.ToValue(key))
		res, flags, err := o.class.Del(o.selfHandle(), idH)
		o.raiseIfNeeded(res, flags, err)
		if res != nil {
			ok := unwrap(res).ToBoolean()
			delete(o.data, key)
			o.removeKey(key)
			return ok
		}
	}
	if _, ok := o.data[key]; ok {
		delete(o.data, key)
		o.removeKey(key)
		return true
	}
	return true
}

func (o *classObject) removeKey(key string) {
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			return
		}
	}
}

func (o *classObject) Keys() []string {
	if o.class.Hooks&backend.HookEnumerate != 0 {
		res, flags, err := o.class.Enumerate(o.selfHandle())
		o.raiseIfNeeded(res, flags, err)
		if res != nil {
			if arr, ok := unwrap(res).(*goja.Object); ok && arr.ClassName() == "Array" {
				if items, ok := arr.Export().([]interface{}); ok {
					names := make([]string, len(items))
					for i, it := range items {
						names[i] = o.c.vm.ToValue(it).String()
					}
					return names
				}
			}
		}
	}
	return append([]string(nil), o.keys...)
}
