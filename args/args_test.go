package args

import (
	"testing"

	"github.com/r3e-network/natus/backend"
)

type fakeValue struct {
	typ backend.TypeTag
	num float64
	str string
}

func (f *fakeValue) Type() backend.TypeTag         { return f.typ }
func (f *fakeValue) ToDouble() float64              { return f.num }
func (f *fakeValue) ToBool() bool                   { return f.num != 0 }
func (f *fakeValue) ToString() (string, error)      { return f.str, nil }
func (f *fakeValue) Private() (backend.PrivMap, bool) { return nil, false }

func TestEnsureRequiredMismatch(t *testing.T) {
	argsList := []Value{&fakeValue{typ: backend.TypeString}}
	if err := Ensure(argsList, "n"); err == nil {
		t.Fatal("expected TypeError for string where number required")
	}
}

func TestEnsureOptionalMissingOK(t *testing.T) {
	argsList := []Value{&fakeValue{typ: backend.TypeNumber}}
	if err := Ensure(argsList, "n|s"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureAlternativeGroup(t *testing.T) {
	argsList := []Value{&fakeValue{typ: backend.TypeNull}}
	if err := Ensure(argsList, "(oN)"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureMissingRequired(t *testing.T) {
	if err := Ensure(nil, "n"); err == nil {
		t.Fatal("expected error for missing required argument")
	}
}

func TestConvertIntAndString(t *testing.T) {
	argsList := []Value{
		&fakeValue{typ: backend.TypeNumber, num: 42},
		&fakeValue{typ: backend.TypeString, str: "hi"},
	}
	out, err := Convert(argsList, "%d%s", nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Int != 42 {
		t.Fatalf("out[0].Int = %d, want 42", out[0].Int)
	}
	if out[1].Str != "hi" {
		t.Fatalf("out[1].Str = %q, want hi", out[1].Str)
	}
}

func TestConvertMissingUsesDefault(t *testing.T) {
	out, err := Convert(nil, "%d", nil, Converted{Int: 7})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if out[0].Int != 7 {
		t.Fatalf("out[0].Int = %d, want 7 (default)", out[0].Int)
	}
}

func TestConvertWideString(t *testing.T) {
	argsList := []Value{&fakeValue{typ: backend.TypeString, str: "ab"}}
	out, err := Convert(argsList, "%ls", nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(out[0].UTF16) != 2 {
		t.Fatalf("UTF16 len = %d, want 2", len(out[0].UTF16))
	}
}

func TestParseFormatUnknownLetter(t *testing.T) {
	if _, err := parseFormat("q"); err == nil {
		t.Fatal("expected LogicError for unknown type letter")
	}
}
