package hostclock

import "testing"

func TestDefaultIsMonotonic(t *testing.T) {
	src := Default()
	a := src.NowNano()
	b := src.NowNano()
	if b < a {
		t.Fatalf("clock went backwards: %d then %d", a, b)
	}
}

func TestSourceFunc(t *testing.T) {
	var n int64 = 42
	src := SourceFunc(func() int64 { return n })
	if got := src.NowNano(); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}
