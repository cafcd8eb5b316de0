package natuscfg

import (
	"github.com/tidwall/gjson"
)

// RequireView is a read-only, lazily-queried view over the require
// subsystem's JSON config tree (§6 Config shape). The require package
// only ever reads this tree — path, whitelist, and origin lists are
// never mutated after init — so a gjson.Result view avoids a full
// struct decode and keeps the config's exact JSON shape as the source of
// truth rather than duplicating it into Go structs that could drift.
type RequireView struct {
	root gjson.Result
}

// NewRequireView parses raw as the §6 config shape and returns a
// queryable view. raw may be the whole `{"natus": {...}}` document.
func NewRequireView(raw []byte) RequireView {
	return RequireView{root: gjson.ParseBytes(raw)}
}

// Path returns natus.require.path, or nil if absent.
func (v RequireView) Path() []string {
	return v.stringArray("natus.require.path")
}

// HasPath reports whether natus.require.path is present and non-empty,
// the §4.I condition for installing the global require function.
func (v RequireView) HasPath() bool {
	r := v.root.Get("natus.require.path")
	return r.IsArray() && len(r.Array()) > 0
}

// Whitelist returns natus.require.whitelist, and whether it was present
// at all (sandbox mode is keyed on presence, not non-emptiness).
func (v RequireView) Whitelist() ([]string, bool) {
	r := v.root.Get("natus.require.whitelist")
	if !r.Exists() {
		return nil, false
	}
	return v.stringArray("natus.require.whitelist"), true
}

// OriginsWhitelist returns natus.origins.whitelist, and whether it was
// present — origin_permitted (§4.I) is permissive when absent.
func (v RequireView) OriginsWhitelist() ([]string, bool) {
	r := v.root.Get("natus.origins.whitelist")
	if !r.Exists() {
		return nil, false
	}
	return v.stringArray("natus.origins.whitelist"), true
}

// OriginsBlacklist returns natus.origins.blacklist, or nil if absent.
func (v RequireView) OriginsBlacklist() []string {
	return v.stringArray("natus.origins.blacklist")
}

func (v RequireView) stringArray(path string) []string {
	r := v.root.Get(path)
	if !r.IsArray() {
		return nil
	}
	arr := r.Array()
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		out = append(out, e.String())
	}
	return out
}
