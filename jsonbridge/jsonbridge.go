// Package jsonbridge wraps the engine's own JSON global (spec §4.H),
// rather than parsing or serializing JSON in Go: from_json calls
// ctx.JSON.parse(text), to_json calls value.global.JSON.stringify(value).
// This keeps Natus's JSON semantics identical to the script-visible
// JSON object, including whatever corner cases a given backend's JSON
// implementation has.
package jsonbridge

import (
	"github.com/r3e-network/natus"
	"github.com/r3e-network/natus/pkg/natuserr"
)

// FromJSON parses text by calling the engine's JSON.parse.
func FromJSON(ctx *natus.Context, text string) (*natus.Value, error) {
	global, err := ctx.Global()
	if err != nil {
		return nil, err
	}
	defer global.Drop()

	jsonObj, err := global.Get("JSON")
	if err != nil {
		return nil, err
	}
	defer jsonObj.Drop()

	parseFn, err := jsonObj.Get("parse")
	if err != nil {
		return nil, err
	}
	defer parseFn.Drop()

	textVal, err := ctx.String(text)
	if err != nil {
		return nil, err
	}
	defer textVal.Drop()

	res, err := parseFn.Call(jsonObj, textVal)
	if err != nil {
		return nil, err
	}
	if res.IsException() {
		return nil, natuserr.ImportWrap(res.AsError(), "from_json: JSON.parse failed")
	}
	return res, nil
}

// ToJSON serializes value by calling the engine's JSON.stringify,
// looked up via value's own global (spec §4.H "value.global.JSON").
func ToJSON(ctx *natus.Context, value *natus.Value) (string, error) {
	global, err := value.Context().Global()
	if err != nil {
		return "", err
	}
	defer global.Drop()

	jsonObj, err := global.Get("JSON")
	if err != nil {
		return "", err
	}
	defer jsonObj.Drop()

	stringifyFn, err := jsonObj.Get("stringify")
	if err != nil {
		return "", err
	}
	defer stringifyFn.Drop()

	res, err := stringifyFn.Call(jsonObj, value)
	if err != nil {
		return "", err
	}
	if res.IsException() {
		return "", natuserr.ImportWrap(res.AsError(), "to_json: JSON.stringify failed")
	}
	defer res.Drop()

	return res.ToString()
}
