package natus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r3e-network/natus"
	_ "github.com/r3e-network/natus/backend/gojabackend"
)

func newEngine(t *testing.T) (*natus.Engine, *natus.Context, *natus.Value) {
	t.Helper()
	e, err := natus.Open("", "goja")
	require.NoError(t, err)
	ctx, g, err := e.NewGlobal(nil)
	require.NoError(t, err)
	return e, ctx, g
}

func TestArrayPushPop(t *testing.T) {
	_, ctx, global := newEngine(t)

	n1, _ := ctx.Number(123)
	n2, _ := ctx.Number(456)
	arr, err := ctx.Array(n1, n2)
	require.NoError(t, err)
	require.NoError(t, global.Set("x", arr))

	x, err := global.Get("x")
	require.NoError(t, err)

	foo, _ := ctx.String("foo")
	require.NoError(t, x.Push(foo))

	lenVal, err := x.Get("length")
	require.NoError(t, err)
	require.Equal(t, float64(3), lenVal.ToDouble())

	popped, err := x.Pop()
	require.NoError(t, err)
	s, err := popped.ToString()
	require.NoError(t, err)
	require.Equal(t, "foo", s)

	lenVal2, err := x.Get("length")
	require.NoError(t, err)
	require.Equal(t, float64(2), lenVal2.ToDouble())

	first, err := x.Get("0")
	require.NoError(t, err)
	require.Equal(t, float64(123), first.ToDouble())
}

func TestNativeFunctionException(t *testing.T) {
	_, ctx, global := newEngine(t)

	bomb, err := ctx.Function("bomb", natus.NativeFunc(ctx, func(this *natus.Value, args []*natus.Value) (*natus.Value, error) {
		failStr, err := ctx.String("fail")
		if err != nil {
			return nil, err
		}
		return failStr.ToException(), nil
	}))
	require.NoError(t, err)
	require.NoError(t, global.Set("bomb", bomb))

	res, err := ctx.Evaluate(`try { bomb(); "ok" } catch(e) { e }`, "t.js", 0, nil)
	require.NoError(t, err)
	require.False(t, res.IsException())

	s, err := res.ToString()
	require.NoError(t, err)
	require.Equal(t, "fail", s)
}

func TestClassGetHookIntercepts(t *testing.T) {
	_, ctx, global := newEngine(t)

	class := natus.NewClass(ctx, natus.ClassSpec{
		Get: func(obj, key *natus.Value) (*natus.Value, error) {
			s, err := key.ToString()
			if err != nil {
				return nil, err
			}
			if s == "7" {
				return ctx.Number(7)
			}
			return nil, nil
		},
	})
	obj, err := ctx.NewObject(class, nil)
	require.NoError(t, err)
	require.NoError(t, global.Set("O", obj))

	res, err := ctx.Evaluate(`O[7]`, "t.js", 0, nil)
	require.NoError(t, err)
	require.False(t, res.IsException())
	require.Equal(t, float64(7), res.ToDouble())
}

func TestSetRecursiveMakePath(t *testing.T) {
	_, ctx, global := newEngine(t)

	three, err := ctx.Number(3)
	require.NoError(t, err)
	require.NoError(t, global.SetRecursive("a.b.c", three, 0))

	got, err := global.GetRecursive("a.b.c")
	require.NoError(t, err)
	require.Equal(t, float64(3), got.ToDouble())

	a, err := global.Get("a")
	require.NoError(t, err)
	require.True(t, a.IsObject())
}
