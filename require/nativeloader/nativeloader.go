// Package nativeloader implements the built-in Load-step hook (spec
// §4.J): for a module name, probe each search-path prefix for a
// dynamic-library module, a ".js" file, or a "/__init__.js" directory
// module, in that order, materializing whichever candidate resolves
// first.
//
// It depends only on the root natus façade, not on package require, so
// require can import nativeloader to install it as a built-in hook
// without an import cycle.
package nativeloader

import (
	"os"
	"path/filepath"
	"plugin"
	"runtime"
	"strings"

	"github.com/r3e-network/natus"
	"github.com/r3e-network/natus/internal/memgraph"
	"github.com/r3e-network/natus/pkg/natuserr"
	"github.com/r3e-network/natus/pkg/natusmetrics"
)

// InitSymbol is the fixed export name a native module's dynamic library
// must provide (spec §6 "Native-module ABI").
const InitSymbol = "natus_module_init"

// ModuleInit is the signature a native module's init symbol must
// satisfy.
type ModuleInit func(exports *natus.Value) error

func platformSuffix() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// Load probes prefix for name as a native module, then a script file,
// then a directory module, populating exports from whichever exists. It
// returns (true, nil) when that candidate loaded, (false, nil) if none
// of the three candidates exist under prefix at all (the Load-step
// "continue to the next hook" convention), and (true, err) for an
// existing-but-failing candidate, which is a hard error (spec §9 "hard
// errors abort the search immediately"). moduleObj and requireFn are
// passed through to a script candidate's module-wrapper call (requireFn
// may be nil, in which case the module sees require as undefined).
func Load(ctx *natus.Context, dllAnchor *memgraph.Node, exports, moduleObj, requireFn *natus.Value, prefix, name string, metrics *natusmetrics.Registry) (bool, error) {
	soPath := filepath.Join(prefix, name+platformSuffix())
	if _, err := os.Stat(soPath); err == nil {
		if err := loadNative(ctx, dllAnchor, exports, soPath); err != nil {
			metrics.NativeLoaderOutcome("native", "error")
			return true, natuserr.ImportWrap(err, "load native module %q", name)
		}
		metrics.NativeLoaderOutcome("native", "ok")
		return true, nil
	}

	jsPath := filepath.Join(prefix, name+".js")
	if _, err := os.Stat(jsPath); err == nil {
		if err := loadScript(ctx, exports, moduleObj, requireFn, jsPath); err != nil {
			metrics.NativeLoaderOutcome("script", "error")
			return true, natuserr.ImportWrap(err, "load script module %q", name)
		}
		metrics.NativeLoaderOutcome("script", "ok")
		return true, nil
	}

	initPath := filepath.Join(prefix, name, "__init__.js")
	if _, err := os.Stat(initPath); err == nil {
		if err := loadScript(ctx, exports, moduleObj, requireFn, initPath); err != nil {
			metrics.NativeLoaderOutcome("package", "error")
			return true, natuserr.ImportWrap(err, "load package module %q", name)
		}
		metrics.NativeLoaderOutcome("package", "ok")
		return true, nil
	}

	return false, nil
}

// loadNative opens path as a plugin, looks up InitSymbol, and calls it
// with exports. The plugin handle is anchored under dllAnchor so it
// survives for the life of the Context (spec §5 "shared across all
// modules... unloaded only when the Context is destroyed").
func loadNative(ctx *natus.Context, dllAnchor *memgraph.Node, exports *natus.Value, path string) error {
	p, err := plugin.Open(path)
	if err != nil {
		return natuserr.OS(err)
	}
	sym, err := p.Lookup(InitSymbol)
	if err != nil {
		return natuserr.Import("native module %s: missing %s symbol", path, InitSymbol)
	}
	initFn, ok := sym.(func(*natus.Value) error)
	if !ok {
		initFn2, ok2 := sym.(ModuleInit)
		if !ok2 {
			return natuserr.Import("native module %s: %s has wrong signature", path, InitSymbol)
		}
		initFn = initFn2
	}

	held := memgraph.New(dllAnchor)
	held.NameSet("dll")
	held.DestructorSet(func() { _ = p })

	if err := initFn(exports); err != nil {
		return natuserr.ImportWrap(err, "native module %s init failed", path)
	}
	return nil
}

// loadScript reads path, strips a leading shebang line (spec §4.J
// "Script evaluation strips a leading #! shebang line"), and evaluates
// it wrapped as a module function — (exports, module, require,
// __filename, __dirname) — invoked with this bound to exports, the same
// way Node's own module wrapper works. This keeps the module's code
// running in ctx's own runtime (the same one the requiring script runs
// in) rather than needing a second, separate global to stand in for
// module scope.
func loadScript(ctx *natus.Context, exports, moduleObj, requireFn *natus.Value, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return natuserr.OS(err)
	}
	src := stripShebang(string(data))

	wrapped := "(function(exports, module, require, __filename, __dirname) {\n" + src + "\n})"
	fnVal, err := ctx.Evaluate(wrapped, path, 0, nil)
	if err != nil {
		return err
	}
	if fnVal.IsException() {
		return fnVal.AsError()
	}

	filenameVal, err := ctx.String(path)
	if err != nil {
		return err
	}
	dirnameVal, err := ctx.String(filepath.Dir(path))
	if err != nil {
		return err
	}
	reqArg := requireFn
	if reqArg == nil {
		reqArg, err = ctx.Undefined()
		if err != nil {
			return err
		}
	}

	res, err := fnVal.Call(exports, exports, moduleObj, reqArg, filenameVal, dirnameVal)
	if err != nil {
		return err
	}
	if res.IsException() {
		return res.AsError()
	}
	return nil
}

func stripShebang(src string) string {
	if !strings.HasPrefix(src, "#!") {
		return src
	}
	if idx := strings.IndexByte(src, '\n'); idx >= 0 {
		return src[idx+1:]
	}
	return ""
}
