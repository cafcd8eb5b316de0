// Command natus is the reference CLI front-end over the façade (spec §6
// "CLI (reference front-end)"): it loads a backend engine, builds the
// require config from -C flags and NATUS_PATH, then either runs -c
// inline script text, a script file, or drops into evaluating stdin.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/r3e-network/natus"
	_ "github.com/r3e-network/natus/backend/gojabackend"
	"github.com/r3e-network/natus/pkg/natuscfg"
	"github.com/r3e-network/natus/pkg/natuserr"
	"github.com/r3e-network/natus/pkg/natuslog"
	"github.com/r3e-network/natus/require"
)

// Exit codes (spec §6 "CLI").
const (
	exitOK                = 0
	exitEngineInitFailed  = 2
	exitScriptNotFound    = 3
	exitUncaughtException = 8
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("natus", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	engineFlag := fs.String("e", "", "backend engine name")
	inlineScript := fs.String("c", "", "inline script text to evaluate")
	noRun := fs.Bool("n", false, "parse/validate the script without executing it")
	var configEntries []string
	fs.Func("C", "key=jsonval override, or a path to a JSON config file", func(v string) error {
		configEntries = append(configEntries, v)
		return nil
	})

	if err := fs.Parse(argv); err != nil {
		fmt.Fprintf(os.Stderr, "LogicError: %v\n", err)
		return exitEngineInitFailed
	}

	log := natuslog.NewDefault("natus-cli")

	deployCfg, err := natuscfg.Load("")
	if err != nil {
		printErr(err)
		return exitEngineInitFailed
	}

	engine, err := natus.Open(deployCfg.EnginesDir, *engineFlag, natus.WithLogger(log))
	if err != nil {
		printErr(err)
		return exitEngineInitFailed
	}
	ctx, global, err := engine.NewGlobal(nil)
	if err != nil {
		printErr(err)
		return exitEngineInitFailed
	}

	requireRaw, err := buildRequireConfig(deployCfg, configEntries)
	if err != nil {
		printErr(err)
		return exitEngineInitFailed
	}
	if _, err := require.Init(ctx, global, requireRaw); err != nil {
		printErr(err)
		return exitEngineInitFailed
	}

	remaining := fs.Args()

	var source, filename string
	switch {
	case *inlineScript != "":
		source, filename = *inlineScript, "-e"
	case len(remaining) > 0:
		data, err := os.ReadFile(remaining[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "OSError: %v\n", err)
			return exitScriptNotFound
		}
		source, filename = string(data), remaining[0]
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			printErr(err)
			return exitEngineInitFailed
		}
		source, filename = string(data), "<stdin>"
	}

	if *noRun {
		if err := ctx.Validate(source, filename); err != nil {
			fmt.Fprintf(os.Stderr, "SyntaxError: %v\n", err)
			return exitUncaughtException
		}
		return exitOK
	}

	res, err := ctx.Evaluate(source, filename, 0, nil)
	if err != nil {
		printErr(err)
		return exitEngineInitFailed
	}
	if res.IsException() {
		printExceptionValue(res)
		return exitUncaughtException
	}
	if res.IsNumber() {
		return int(res.ToDouble())
	}
	return exitOK
}

// buildRequireConfig assembles the §6 require config-shape JSON from
// the deployment config's module path and any -C overrides. A -C value
// containing "=" is a dotted-path key=jsonval override; otherwise it
// names a JSON file whose contents replace the whole document built so
// far (including the NATUS_PATH entries and earlier overrides).
func buildRequireConfig(deployCfg natuscfg.Config, entries []string) ([]byte, error) {
	doc := `{"natus":{"require":{"path":[]}}}`
	for _, p := range deployCfg.ModulePath {
		var err error
		doc, err = sjson.Set(doc, "natus.require.path.-1", p)
		if err != nil {
			return nil, natuserr.Logic("build require config: %v", err)
		}
	}

	for _, e := range entries {
		if idx := strings.IndexByte(e, '='); idx >= 0 {
			key, rawVal := e[:idx], e[idx+1:]
			var val any
			if err := json.Unmarshal([]byte(rawVal), &val); err != nil {
				val = rawVal // not valid JSON: treat as a bare string
			}
			var err error
			doc, err = sjson.Set(doc, key, val)
			if err != nil {
				return nil, natuserr.Logic("apply -C %s: %v", e, err)
			}
			continue
		}
		data, err := os.ReadFile(e)
		if err != nil {
			return nil, natuserr.OS(err)
		}
		if !gjson.ValidBytes(data) {
			return nil, natuserr.Logic("-C %s: not valid JSON", e)
		}
		doc = string(data)
	}
	return []byte(doc), nil
}

func printErr(err error) {
	if ne, ok := natuserr.As(err); ok {
		if ne.Code != "" {
			fmt.Fprintf(os.Stderr, "%s[%s]: %s\n", ne.Type, ne.Code, ne.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %s\n", ne.Type, ne.Message)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func printExceptionValue(v *natus.Value) {
	if err := v.AsError(); err != nil {
		printErr(err)
		return
	}
	s, _ := v.ToString()
	fmt.Fprintf(os.Stderr, "uncaught exception: %s\n", s)
}
