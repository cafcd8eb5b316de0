// Package natuserr provides the unified error taxonomy used across the
// façade, the require subsystem, and the CLI.
package natuserr

import (
	"errors"
	"fmt"
)

// Kind identifies which family of §7 error taxonomy an error belongs to.
type Kind string

const (
	KindLogic    Kind = "LogicError"
	KindType     Kind = "TypeError"
	KindSecurity Kind = "SecurityError"
	KindImport   Kind = "ImportError"
	KindOS       Kind = "OSError"
)

// NatusError is a structured error carrying a JS-visible {type, msg, code}.
// It is the native-side twin of the JS exception value produced by
// Context.Throw, which converts a NatusError into a {name, message,
// code} error object when it crosses into script space.
type NatusError struct {
	Type    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *NatusError) Error() string {
	if e.Code != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s[%s]: %s: %v", e.Type, e.Code, e.Message, e.Err)
		}
		return fmt.Sprintf("%s[%s]: %s", e.Type, e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *NatusError) Unwrap() error {
	return e.Err
}

// WithDetail attaches an extra diagnostic key/value and returns the
// receiver for chaining.
func (e *NatusError) WithDetail(key string, value any) *NatusError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a NatusError with no wrapped cause.
func New(kind Kind, code, message string) *NatusError {
	return &NatusError{Type: kind, Code: code, Message: message}
}

// Wrap creates a NatusError wrapping an existing error.
func Wrap(kind Kind, code, message string, err error) *NatusError {
	return &NatusError{Type: kind, Code: code, Message: message, Err: err}
}

// Logic reports a programmer error: a malformed ensure_arguments format
// string, or any other invariant violation that is never the caller's JS
// input.
func Logic(format string, a ...any) *NatusError {
	return New(KindLogic, "LOGIC_1001", fmt.Sprintf(format, a...))
}

// TypeErrorf reports an argument-shape mismatch or bad-type operation.
func TypeErrorf(format string, a ...any) *NatusError {
	return New(KindType, "TYPE_2001", fmt.Sprintf(format, a...))
}

// Security reports a require() call outside the configured whitelist.
func Security(format string, a ...any) *NatusError {
	return New(KindSecurity, "SEC_3001", fmt.Sprintf(format, a...))
}

// Import reports a module that failed to resolve or load.
func Import(format string, a ...any) *NatusError {
	return New(KindImport, "IMPORT_4001", fmt.Sprintf(format, a...))
}

// ImportWrap reports a module load failure with an underlying cause
// (a missing init symbol, a loader returning failure, an I/O error).
func ImportWrap(err error, format string, a ...any) *NatusError {
	return Wrap(KindImport, "IMPORT_4002", fmt.Sprintf(format, a...), err)
}

// osFamily maps a Go OS-level error to a stable family name, mirroring
// the errno-to-name mapping §7 calls for.
func osFamily(err error) string {
	switch {
	case errors.Is(err, errPermission):
		return "PermissionError"
	case errors.Is(err, errNotExist):
		return "FileNotFoundError"
	case errors.Is(err, errExist):
		return "FileExistsError"
	default:
		return "OSError"
	}
}

// OS wraps a host I/O failure, mapping it to its OSError family name per
// §7's error table.
func OS(err error) *NatusError {
	family := osFamily(err)
	return Wrap(KindOS, "OS_5001", family, err).WithDetail("family", family)
}

// As reports whether err (or something it wraps) is a *NatusError, and
// returns it.
func As(err error) (*NatusError, bool) {
	var ne *NatusError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
