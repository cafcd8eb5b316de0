package gojabackend

import (
	"github.com/dop251/goja"

	"github.com/r3e-network/natus/backend"
)

// Validate parses source without running it or creating any bindings,
// satisfying backend.Validator. Mirrors the teacher's ValidateScript:
// a parse-only check used by tools that want to reject a bad script
// before spending a Context on it.
func (b *Backend) Validate(rc backend.RawCtx, source, filename string) error {
	_, err := goja.Compile(filename, source, false)
	return err
}
