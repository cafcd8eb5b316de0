package natuserr

import (
	"errors"
	"testing"
)

func TestNatusError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *NatusError
		want string
	}{
		{
			name: "error without underlying cause",
			err:  New(KindSecurity, "SEC_3001", "require name not whitelisted"),
			want: "SecurityError[SEC_3001]: require name not whitelisted",
		},
		{
			name: "error with underlying cause",
			err:  Wrap(KindImport, "IMPORT_4002", "load module m", errors.New("dlopen failed")),
			want: "ImportError[IMPORT_4002]: load module m: dlopen failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNatusError_Unwrap(t *testing.T) {
	underlying := errors.New("boom")
	err := Wrap(KindType, "TYPE_2001", "test", underlying)

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}
}

func TestNatusError_WithDetail(t *testing.T) {
	err := New(KindLogic, "LOGIC_1001", "bad format").WithDetail("index", 2)
	if err.Details["index"] != 2 {
		t.Errorf("Details[index] = %v, want 2", err.Details["index"])
	}
}

func TestAs(t *testing.T) {
	err := Security("name %q not permitted", "bad")
	ne, ok := As(err)
	if !ok {
		t.Fatal("expected As to succeed")
	}
	if ne.Type != KindSecurity {
		t.Errorf("Type = %v, want %v", ne.Type, KindSecurity)
	}

	if _, ok := As(errors.New("plain")); ok {
		t.Error("expected As to fail for a plain error")
	}
}
