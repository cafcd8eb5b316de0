package natus

// installConsole attaches a console global backed by the Engine's
// logger (grounded on the teacher's script_engine.go setupConsole,
// which wires a script VM's console to the service's own logger rather
// than bare stdout). Not part of spec.md; carried forward as an ambient
// concern the way logging always is.
func installConsole(ctx *Context, global *Value) error {
	console, err := ctx.NewObject(nil, nil)
	if err != nil {
		return err
	}
	log := ctx.engine.log

	logFn, err := ctx.Function("log", NativeFunc(ctx, func(this *Value, args []*Value) (*Value, error) {
		log.WithField("source", "console.log").Info(joinArgs(args))
		return ctx.Undefined()
	}))
	if err != nil {
		return err
	}
	errFn, err := ctx.Function("error", NativeFunc(ctx, func(this *Value, args []*Value) (*Value, error) {
		log.WithField("source", "console.error").Error(joinArgs(args))
		return ctx.Undefined()
	}))
	if err != nil {
		return err
	}
	if err := console.Set("log", logFn); err != nil {
		return err
	}
	if err := console.Set("error", errFn); err != nil {
		return err
	}
	return global.Set("console", console)
}

func joinArgs(args []*Value) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		if s, err := a.ToString(); err == nil {
			out += s
		}
	}
	return out
}
