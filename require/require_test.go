package require_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r3e-network/natus"
	_ "github.com/r3e-network/natus/backend/gojabackend"
	reqpkg "github.com/r3e-network/natus/require"
)

func newTestContext(t *testing.T) (*natus.Engine, *natus.Context, *natus.Value) {
	t.Helper()
	engine, err := natus.Open("", "goja")
	require.NoError(t, err)
	ctx, global, err := engine.NewGlobal(nil)
	require.NoError(t, err)
	return engine, ctx, global
}

func TestModuleCacheIdentity(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.js"), []byte("exports.n = 1;\n"), 0o644))

	_, ctx, global := newTestContext(t)
	cfg := []byte(`{"natus":{"require":{"path":["` + dir + `"]}}}`)
	st, err := reqpkg.Init(ctx, global, cfg)
	require.NoError(t, err)

	a, err := st.Require("m")
	require.NoError(t, err)
	nv, err := ctx.Number(99)
	require.NoError(t, err)
	require.NoError(t, a.Set("n", nv))

	b, err := st.Require("m")
	require.NoError(t, err)
	n, err := b.Get("n")
	require.NoError(t, err)
	require.Equal(t, float64(99), n.ToDouble())
}

func TestSandboxWhitelistRejectsUnlisted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.js"), []byte("exports.x = 1;\n"), 0o644))

	_, ctx, global := newTestContext(t)
	cfg := []byte(`{"natus":{"require":{"path":["` + dir + `"],"whitelist":["ok"]}}}`)
	st, err := reqpkg.Init(ctx, global, cfg)
	require.NoError(t, err)

	_, err = st.Require("ok")
	require.NoError(t, err)

	_, err = st.Require("bad")
	require.Error(t, err)

	reqFn, err := global.Get("require")
	require.NoError(t, err)
	pathsVal, err := reqFn.Get("paths")
	require.NoError(t, err)
	require.True(t, pathsVal.IsUndefined())
}

func TestScriptLevelRequireCacheIdentity(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.js"), []byte("exports.n = 1;\n"), 0o644))

	_, ctx, global := newTestContext(t)
	cfg := []byte(`{"natus":{"require":{"path":["` + dir + `"]}}}`)
	_, err := reqpkg.Init(ctx, global, cfg)
	require.NoError(t, err)

	res, err := ctx.Evaluate(`a = require("m"); a.n = 99; b = require("m"); b.n`, "t.js", 0, nil)
	require.NoError(t, err)
	require.False(t, res.IsException())
	require.Equal(t, float64(99), res.ToDouble())
}

func TestNonSandboxExposesModuleURI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.js"), []byte("exports.n = 1;\nexports.uri = function() { return module.uri; };\n"), 0o644))

	_, ctx, global := newTestContext(t)
	cfg := []byte(`{"natus":{"require":{"path":["` + dir + `"]}}}`)
	st, err := reqpkg.Init(ctx, global, cfg)
	require.NoError(t, err)

	m, err := st.Require("m")
	require.NoError(t, err)

	uriFn, err := m.Get("uri")
	require.NoError(t, err)
	uri, err := uriFn.Call(m)
	require.NoError(t, err)
	require.False(t, uri.IsException())
	s, err := uri.ToString()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(s, "file://"), "module.uri = %q", s)
}
