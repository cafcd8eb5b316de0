// Package args implements the argument-shape checker and printf-like
// converter (spec §4.G) that native functions use to validate and
// unpack a JS argument array into Go scalars.
package args

import (
	"fmt"
	"strings"

	"github.com/r3e-network/natus/backend"
	"github.com/r3e-network/natus/pkg/natuserr"
)

// kind is one letter of the ensure_arguments mini-language.
type kind byte

const (
	kindArray     kind = 'a'
	kindBool      kind = 'b'
	kindFunction  kind = 'f'
	kindNumber    kind = 'n'
	kindNull      kind = 'N'
	kindObject    kind = 'o'
	kindString    kind = 's'
	kindUndefined kind = 'u'
)

func (k kind) matches(t backend.TypeTag) bool {
	switch k {
	case kindArray:
		return t == backend.TypeArray
	case kindBool:
		return t == backend.TypeBoolean
	case kindFunction:
		return t == backend.TypeFunction
	case kindNumber:
		return t == backend.TypeNumber
	case kindNull:
		return t == backend.TypeNull
	case kindObject:
		return t == backend.TypeObject || t == backend.TypeArray || t == backend.TypeFunction
	case kindString:
		return t == backend.TypeString
	case kindUndefined:
		return t == backend.TypeUndefined
	}
	return false
}

func (k kind) name() string {
	switch k {
	case kindArray:
		return "array"
	case kindBool:
		return "boolean"
	case kindFunction:
		return "function"
	case kindNumber:
		return "number"
	case kindNull:
		return "null"
	case kindObject:
		return "object"
	case kindString:
		return "string"
	case kindUndefined:
		return "undefined"
	}
	return "?"
}

// slot is one argument position's set of acceptable kinds — more than
// one entry when the format groups alternatives in "()".
type slot struct {
	kinds    []kind
	required bool
}

func (s slot) names() string {
	names := make([]string, len(s.kinds))
	for i, k := range s.kinds {
		names[i] = k.name()
	}
	return strings.Join(names, " or ")
}

// parseFormat parses an ensure_arguments format string (spec §4.G) into
// a sequence of slots. "|" separates required from optional slots;
// "(xy)" groups x and y as alternatives for one slot.
func parseFormat(format string) ([]slot, error) {
	var slots []slot
	required := true
	i := 0
	for i < len(format) {
		c := format[i]
		switch c {
		case '|':
			required = false
			i++
		case '(':
			end := strings.IndexByte(format[i:], ')')
			if end < 0 {
				return nil, natuserr.Logic("ensure_arguments: unterminated '(' in format %q", format)
			}
			group := format[i+1 : i+end]
			if group == "" {
				return nil, natuserr.Logic("ensure_arguments: empty group in format %q", format)
			}
			kinds := make([]kind, len(group))
			for j := 0; j < len(group); j++ {
				k := kind(group[j])
				if k.name() == "?" {
					return nil, natuserr.Logic("ensure_arguments: unknown type letter %q in format %q", string(group[j]), format)
				}
				kinds[j] = k
			}
			slots = append(slots, slot{kinds: kinds, required: required})
			i += end + 1
		default:
			k := kind(c)
			if k.name() == "?" {
				return nil, natuserr.Logic("ensure_arguments: unknown type letter %q in format %q", string(c), format)
			}
			slots = append(slots, slot{kinds: []kind{k}, required: required})
			i++
		}
	}
	return slots, nil
}

// Value is the minimal surface args needs from a façade Value, so this
// package does not import the root natus package; *natus.Value
// satisfies it.
type Value interface {
	Type() backend.TypeTag
	ToDouble() float64
	ToBool() bool
	ToString() (string, error)
	Private() (backend.PrivMap, bool)
}

// Ensure validates args against format (spec §4.G ensure_arguments). It
// returns a TypeError naming the offending index and its allowed types
// on mismatch, or nil on success.
func Ensure(argsList []Value, format string) error {
	slots, err := parseFormat(format)
	if err != nil {
		return err
	}
	for i, s := range slots {
		if i >= len(argsList) {
			if s.required {
				return natuserr.TypeErrorf("argument %d: expected %s, got nothing", i, s.names())
			}
			continue
		}
		t := argsList[i].Type()
		ok := false
		for _, k := range s.kinds {
			if k.matches(t) {
				ok = true
				break
			}
		}
		if !ok {
			return natuserr.TypeErrorf("argument %d: expected %s, got %s", i, s.names(), t.String())
		}
	}
	return nil
}

// directive is one parsed conversion directive from a convert_arguments
// format string.
type directive struct {
	width byte // one of 0, 'h','H' (hh), 'l','L' (ll), 'j','t','z'
	verb  byte // o,u,x,X,d,i,n,e,f,g,E,a,c,s,wide-c,wide-s
	wide  bool // true for %lc / %ls
	priv  string
}

func parseConvertFormat(format string) ([]directive, error) {
	var out []directive
	i := 0
	for i < len(format) {
		if format[i] != '%' {
			i++
			continue
		}
		i++
		if i >= len(format) {
			return nil, natuserr.Logic("convert_arguments: trailing %% in format %q", format)
		}
		if format[i] == '[' {
			end := strings.IndexByte(format[i:], ']')
			if end < 0 {
				return nil, natuserr.Logic("convert_arguments: unterminated %%[ in format %q", format)
			}
			out = append(out, directive{verb: 'P', priv: format[i+1 : i+end]})
			i += end + 1
			continue
		}

		var width byte
		wide := false
	scan:
		for i < len(format) {
			switch format[i] {
			case 'h':
				if width == 'h' || width == 'H' {
					width = 'H'
				} else {
					width = 'h'
				}
				i++
			case 'H', 'j', 't', 'z':
				width = format[i]
				i++
			case 'l':
				if width == 'l' || width == 'L' {
					width = 'L'
				} else {
					width = 'l'
				}
				wide = true
				i++
			default:
				break scan
			}
		}
		if i >= len(format) {
			return nil, natuserr.Logic("convert_arguments: truncated directive in format %q", format)
		}
		verb := format[i]
		i++
		switch verb {
		case 'o', 'u', 'x', 'X', 'd', 'i', 'n', 'e', 'f', 'g', 'E', 'a', 'c', 's':
			out = append(out, directive{width: width, verb: verb, wide: wide && (verb == 'c' || verb == 's')})
		default:
			return nil, natuserr.Logic("convert_arguments: unknown verb %q in format %q", string(verb), format)
		}
	}
	return out, nil
}

// Converted is one decoded argument. It carries no record of the verb
// that produced it: only the field for that verb is set (Int for d/i/n,
// Uint for o/u/x/X, Float for e/f/g/E/a, Str for c/s, UTF16 for lc/ls,
// Priv and PrivOK for %[privname]), and callers read the field that
// matches their own format string.
type Converted struct {
	Int    int64
	Uint   uint64
	Float  float64
	Str    string
	UTF16  []uint16
	Priv   any
	PrivOK bool
}

// Convert applies format's printf-like directives against argsList
// (spec §4.G convert_arguments), consuming one argument per directive
// except %[privname] which fetches typed private data from the
// receiver's private map (privSource) rather than the argument list.
// defaults supplies values for positions beyond len(argsList).
func Convert(argsList []Value, format string, privSource Value, defaults ...Converted) ([]Converted, error) {
	directives, err := parseConvertFormat(format)
	if err != nil {
		return nil, err
	}
	out := make([]Converted, 0, len(directives))
	argi := 0
	defi := 0
	nextArg := func() (Value, bool) {
		if argi < len(argsList) {
			v := argsList[argi]
			argi++
			return v, true
		}
		return nil, false
	}
	for _, d := range directives {
		if d.verb == 'P' {
			if privSource == nil {
				return nil, natuserr.Logic("convert_arguments: %%[%s] used with no private-data source", d.priv)
			}
			pm, ok := privSource.Private()
			if !ok {
				out = append(out, Converted{PrivOK: false})
				continue
			}
			ptr, present := pm.Get(d.priv)
			out = append(out, Converted{Priv: ptr, PrivOK: present})
			continue
		}

		v, present := nextArg()
		if !present {
			if defi < len(defaults) {
				out = append(out, defaults[defi])
				defi++
				continue
			}
			return nil, natuserr.TypeErrorf("convert_arguments: missing argument for directive %q", string(d.verb))
		}

		switch d.verb {
		case 'o', 'u', 'x', 'X':
			out = append(out, Converted{Uint: uint64(int64(v.ToDouble()))})
		case 'd', 'i':
			out = append(out, Converted{Int: int64(v.ToDouble())})
		case 'n':
			out = append(out, Converted{Int: int64(v.ToDouble())})
		case 'e', 'f', 'g', 'E', 'a':
			out = append(out, Converted{Float: v.ToDouble()})
		case 'c', 's':
			s, err := v.ToString()
			if err != nil {
				return nil, fmt.Errorf("convert_arguments: %%%c: %w", d.verb, err)
			}
			if d.wide {
				out = append(out, Converted{UTF16: utf16Of(s)})
			} else {
				out = append(out, Converted{Str: s})
			}
		}
	}
	return out, nil
}
