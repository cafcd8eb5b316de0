package privatemap

import "testing"

func TestSetGet(t *testing.T) {
	m := New()
	m.Set("k", 42, nil)
	v, ok := m.Get("k")
	if !ok || v != 42 {
		t.Fatalf("Get(k) = %v, %v; want 42, true", v, ok)
	}
}

func TestSetReplacesAndRunsOldDestructor(t *testing.T) {
	m := New()
	freed := 0
	m.Set("k", 1, func(any) { freed++ })
	m.Set("k", 2, func(any) { freed++ })

	if freed != 1 {
		t.Fatalf("old destructor ran %d times, want 1", freed)
	}
	v, _ := m.Get("k")
	if v != 2 {
		t.Fatalf("Get(k) = %v, want 2", v)
	}
}

func TestSetNilClearsAndRunsDestructor(t *testing.T) {
	m := New()
	freed := false
	m.Set("k", 1, func(any) { freed = true })
	m.Set("k", nil, nil)

	if !freed {
		t.Fatal("expected destructor to run on clear")
	}
	if _, ok := m.Get("k"); ok {
		t.Fatal("expected key to be gone after clearing")
	}
}

func TestPushIsNameless(t *testing.T) {
	m := New()
	m.Push("anon", nil)
	if _, ok := m.Get(""); ok {
		t.Fatal("pushed entries must not be addressable by empty key lookup semantics beyond what Foreach exposes")
	}

	var seen []any
	m.Foreach(false, func(key string, ptr any) {
		seen = append(seen, ptr)
	})
	if len(seen) != 1 || seen[0] != "anon" {
		t.Fatalf("Foreach saw %v, want [anon]", seen)
	}
}

func TestForeachOrderAndReverse(t *testing.T) {
	m := New()
	m.Set("a", 1, nil)
	m.Set("b", 2, nil)
	m.Set("c", 3, nil)

	var forward []string
	m.Foreach(false, func(key string, ptr any) { forward = append(forward, key) })
	if want := []string{"a", "b", "c"}; !equal(forward, want) {
		t.Fatalf("forward order = %v, want %v", forward, want)
	}

	var reverse []string
	m.Foreach(true, func(key string, ptr any) { reverse = append(reverse, key) })
	if want := []string{"c", "b", "a"}; !equal(reverse, want) {
		t.Fatalf("reverse order = %v, want %v", reverse, want)
	}
}

func TestFreeRunsEveryDestructorOnceAndIsIdempotent(t *testing.T) {
	m := New()
	runs := 0
	m.Set("a", 1, func(any) { runs++ })
	m.Set("b", 2, func(any) { runs++ })

	m.Free()
	if runs != 2 {
		t.Fatalf("Free ran %d destructors, want 2", runs)
	}

	m.Free()
	if runs != 2 {
		t.Fatalf("second Free ran destructors again: %d, want 2", runs)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
