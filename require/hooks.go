package require

import (
	"github.com/r3e-network/natus"
	"github.com/r3e-network/natus/require/nativeloader"
)

// NativeLoaderHookName is the name Init registers the built-in §4.J hook
// under.
const NativeLoaderHookName = "native-loader"

// nativeLoaderFallback is the built-in Load-step hook: it tries each
// configured search-path prefix in order via nativeloader.Load, stopping
// at the first prefix where *some* candidate exists (native module,
// script, or package) — a hard error there aborts immediately rather
// than falling through to the next prefix (spec §9).
func nativeLoaderFallback(step Step, name string, scope *Scope, st *State) (*natus.Value, error) {
	if step != StepLoad {
		return nil, nil
	}
	for _, prefix := range st.view.Path() {
		handled, err := nativeloader.Load(scope.Ctx, scope.Ctx.DLLNode(), scope.Exports, scope.Module, st.requireFn, prefix, name, st.metrics)
		if err != nil {
			return nil, err
		}
		if handled {
			return scope.Exports, nil
		}
	}
	return nil, nil
}
