package backend

// Validator is an optional capability a backend may implement alongside
// Backend: parsing source without creating bindings or running
// top-level code. Not part of the core vtable (spec §4.D); a backend
// that doesn't implement it simply can't back Context.Validate.
type Validator interface {
	Validate(ctx RawCtx, source, filename string) error
}
