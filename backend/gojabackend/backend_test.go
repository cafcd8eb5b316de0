package gojabackend

import (
	"testing"

	"github.com/r3e-network/natus/backend"
)

func TestEvaluateReturnsValue(t *testing.T) {
	b := New()
	ctx, _, _, err := b.NewGlobal(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewGlobal: %v", err)
	}

	res, flags, err := b.Evaluate(ctx, nil, "1 + 2", "test.js", 0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if flags.Exception() {
		t.Fatal("unexpected exception flag")
	}
	if got := b.ToDouble(ctx, res); got != 3 {
		t.Fatalf("ToDouble = %v, want 3", got)
	}
}

func TestEvaluateSyntaxErrorIsException(t *testing.T) {
	b := New()
	ctx, _, _, _ := b.NewGlobal(nil, nil, nil)

	res, flags, err := b.Evaluate(ctx, nil, "this is not valid js (((", "bad.js", 0)
	if err != nil {
		t.Fatalf("Evaluate returned Go error instead of exception value: %v", err)
	}
	if !flags.Exception() {
		t.Fatal("expected exception flag for syntax error")
	}
	if res == nil {
		t.Fatal("expected a non-nil exception value")
	}
}

func TestSetGetProperty(t *testing.T) {
	b := New()
	ctx, global, _, _ := b.NewGlobal(nil, nil, nil)

	num, _, _ := b.NewNumber(ctx, 42)
	id, _, _ := b.NewStringUTF8(ctx, "x")
	if err := b.Set(ctx, global, id, num, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, _, err := b.Get(ctx, global, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b.ToDouble(ctx, got) != 42 {
		t.Fatalf("Get(x) = %v, want 42", b.ToDouble(ctx, got))
	}
}

func TestCallFunction(t *testing.T) {
	b := New()
	ctx, _, _, _ := b.NewGlobal(nil, nil, nil)

	fnVal, flags, err := b.Evaluate(ctx, nil, "(function(a, b) { return a + b; })", "fn.js", 0)
	if err != nil || flags.Exception() {
		t.Fatalf("Evaluate function: err=%v flags=%v", err, flags)
	}

	a, _, _ := b.NewNumber(ctx, 10)
	c, _, _ := b.NewNumber(ctx, 20)
	undef, _, _ := b.NewUndefined(ctx)
	res, flags, err := b.Call(ctx, fnVal, undef, []backend.RawHandle{a, c})
	if err != nil || flags.Exception() {
		t.Fatalf("Call: err=%v flags=%v", err, flags)
	}
	if got := b.ToDouble(ctx, res); got != 30 {
		t.Fatalf("Call result = %v, want 30", got)
	}
}
