// Package pluginloader implements the engine loader (spec §4.C): it
// discovers, loads, and verifies a backend plugin, then hands back its
// vtable. It is the one place Natus reaches for the standard library's
// `plugin` package rather than a third-party dependency — no library in
// the retrieval pack wraps dlopen-style symbol loading for this exact
// "one exported symbol holding a versioned vtable" ABI any better than
// stdlib `plugin` does, and fabricating one would mean hand-writing a
// cgo/dlopen shim with no ecosystem grounding. See DESIGN.md.
package pluginloader

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"runtime"

	"github.com/r3e-network/natus/backend"
)

// Descriptor is the symbol every backend plugin exports (spec §6
// "Backend plugin ABI"). The exported symbol is expected to be named
// NatusBackendSymbol.
type Descriptor struct {
	Version         uint32
	Name            string
	RequiredSymbol  string // "" means no prerequisite
	VTable          backend.Backend
}

// NatusBackendSymbol is the fixed export name the loader looks up in
// every candidate plugin (spec §4.C step b).
const NatusBackendSymbol = "NatusBackend"

// platformSuffix returns the dynamic-library suffix for the current
// platform the loader probes for, honoring Go's own plugin build
// constraints (plugin buildmode is ELF/Mach-O only).
func platformSuffix() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}

// Builtin is a backend that ships linked into the host process rather
// than loaded as a dynamic library — the default/fallback candidate so
// the loader always has at least one engine even with an empty engines
// directory. gojabackend registers itself this way.
type Builtin struct {
	Name           string
	RequiredSymbol string
	VTable         backend.Backend
}

var builtins []Builtin

// RegisterBuiltin makes b available to Discover alongside any
// dynamic-library plugins found under the engines directory. Intended to
// be called from an init() in a backend package that imports
// pluginloader, e.g. backend/gojabackend.
func RegisterBuiltin(b Builtin) {
	builtins = append(builtins, b)
}

// requiredSymbolResolves probes the main module's global symbol table
// for name using a best-effort dynamic-library self-open. Go's plugin
// package can only probe symbols inside an already-opened plugin handle,
// so for the "must already be linked into the process" check (spec §4.C
// step c) the loader opens the running executable itself as a plugin.
func requiredSymbolResolves(name string) bool {
	if name == "" {
		return true
	}
	self, err := plugin.Open(os.Args[0])
	if err != nil {
		return false
	}
	_, err = self.Lookup(name)
	return err == nil
}

// verify checks a loaded descriptor against the ABI contract (spec
// §4.C steps b-c).
func verify(d *Descriptor) error {
	if d.Version != backend.Version {
		return &backend.VersionError{Name: d.Name, Got: d.Version}
	}
	if d.RequiredSymbol != "" && !requiredSymbolResolves(d.RequiredSymbol) {
		return fmt.Errorf("backend %q: required symbol %q not resolved in process", d.Name, d.RequiredSymbol)
	}
	return nil
}

// LoadPath opens path as a dynamic library and loads its backend
// descriptor, verifying its ABI.
func LoadPath(path string) (*Descriptor, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin %s: %w", path, err)
	}
	sym, err := p.Lookup(NatusBackendSymbol)
	if err != nil {
		return nil, fmt.Errorf("lookup %s in %s: %w", NatusBackendSymbol, path, err)
	}
	d, ok := sym.(*Descriptor)
	if !ok {
		return nil, fmt.Errorf("plugin %s: symbol %s has wrong type", path, NatusBackendSymbol)
	}
	if err := verify(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Discover finds a backend by name or explicit path (spec §4.C):
//
//   - If nameOrPath is a path that exists, it is tried directly.
//   - Else <enginesDir>/<nameOrPath><suffix> is tried.
//   - Else, if nameOrPath == "", every <enginesDir> entry with the
//     platform module suffix is tried, in directory order.
//
// Builtins registered via RegisterBuiltin are tried first, by exact
// name match (or, for nameOrPath == "", all of them before any dynamic
// candidate), since they require no filesystem probing.
func Discover(enginesDir, nameOrPath string) (*Descriptor, error) {
	if nameOrPath != "" {
		for _, b := range builtins {
			if b.Name == nameOrPath {
				return &Descriptor{Version: backend.Version, Name: b.Name, RequiredSymbol: b.RequiredSymbol, VTable: b.VTable}, nil
			}
		}
	} else {
		for _, b := range builtins {
			d := &Descriptor{Version: backend.Version, Name: b.Name, RequiredSymbol: b.RequiredSymbol, VTable: b.VTable}
			if err := verify(d); err == nil {
				return d, nil
			}
		}
	}

	suffix := platformSuffix()

	if nameOrPath != "" {
		if _, err := os.Stat(nameOrPath); err == nil {
			return LoadPath(nameOrPath)
		}
		candidate := filepath.Join(enginesDir, nameOrPath+suffix)
		if _, err := os.Stat(candidate); err != nil {
			return nil, fmt.Errorf("backend %q: not found as path or under %s", nameOrPath, enginesDir)
		}
		return LoadPath(candidate)
	}

	entries, err := os.ReadDir(enginesDir)
	if err != nil {
		return nil, fmt.Errorf("read engines dir %s: %w", enginesDir, err)
	}
	var lastErr error
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != suffix {
			continue
		}
		d, err := LoadPath(filepath.Join(enginesDir, e.Name()))
		if err != nil {
			lastErr = err
			continue
		}
		return d, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no backend plugins found under %s", enginesDir)
}
