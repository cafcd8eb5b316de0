package jsonbridge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r3e-network/natus"
	_ "github.com/r3e-network/natus/backend/gojabackend"
	"github.com/r3e-network/natus/jsonbridge"
)

func newTestContext(t *testing.T) *natus.Context {
	t.Helper()
	engine, err := natus.Open("", "goja")
	require.NoError(t, err)
	ctx, _, err := engine.NewGlobal(nil)
	require.NoError(t, err)
	return ctx
}

func TestFromJSONRoundTrip(t *testing.T) {
	ctx := newTestContext(t)

	val, err := jsonbridge.FromJSON(ctx, `{"a":1,"b":[1,2,3]}`)
	require.NoError(t, err)
	require.False(t, val.IsException())
	require.True(t, val.IsObject())

	a, err := val.Get("a")
	require.NoError(t, err)
	require.Equal(t, float64(1), a.ToDouble())
}

func TestToJSONRoundTrip(t *testing.T) {
	ctx := newTestContext(t)

	obj, err := ctx.Evaluate(`({a: 1, b: "two"})`, "t.js", 0, nil)
	require.NoError(t, err)
	require.False(t, obj.IsException())

	text, err := jsonbridge.ToJSON(ctx, obj)
	require.NoError(t, err)
	require.Contains(t, text, `"a":1`)
	require.Contains(t, text, `"b":"two"`)
}

func TestFromJSONInvalidTextIsException(t *testing.T) {
	ctx := newTestContext(t)

	_, err := jsonbridge.FromJSON(ctx, `not json`)
	require.Error(t, err)
}
