package chipset

import "testing"

func TestMuldiv64NoOverflow(t *testing.T) {
	got := muldiv64(1<<63, 2, 4)
	want := uint64(1 << 62)
	if got != want {
		t.Fatalf("muldiv64(1<<63, 2, 4) = %d, want %d", got, want)
	}
}

func TestTicksConversionRoundTrip(t *testing.T) {
	for _, nanos := range []int64{0, 1, 1000, 1_000_000_000, 123_456_789} {
		ticks := ticksElapsed(nanos)
		back := ticksToNanos(ticks)
		// muldiv is integer division: back <= nanos, and never off by more
		// than one input tick's worth of nanoseconds.
		if back > nanos {
			t.Fatalf("ticksToNanos(ticksElapsed(%d)) = %d > input", nanos, back)
		}
		if nanos-back >= TicksPerSec/PITFreq+1 {
			t.Fatalf("round trip drifted too far: %d -> %d ticks -> %d", nanos, ticks, back)
		}
	}
}

func TestGetCountMode0CountsDownThroughZeroAndWraps(t *testing.T) {
	const count = 10
	if got := getCount(Mode0, count, 0); got != count {
		t.Fatalf("d=0: got %d, want %d", got, count)
	}
	if got := getCount(Mode0, count, 5); got != 5 {
		t.Fatalf("d=5: got %d, want 5", got)
	}
	if got := getCount(Mode0, count, count); got != 0 {
		t.Fatalf("d=count: got %d, want 0", got)
	}
	if got := getCount(Mode0, count, count+100); got != 65436 {
		t.Fatalf("d>count: got %d, want 65436 (keeps counting down, wrapping modulo 2^16)", got)
	}
}

func TestGetOutMode0RisesAtTerminalCountAndStaysHigh(t *testing.T) {
	const count = 4
	if getOut(Mode0, count, 0) {
		t.Fatalf("OUT should start low")
	}
	if getOut(Mode0, count, count-1) {
		t.Fatalf("OUT should still be low just before terminal count")
	}
	if !getOut(Mode0, count, count) {
		t.Fatalf("OUT should go high at terminal count")
	}
	if !getOut(Mode0, count, count+50) {
		t.Fatalf("OUT should stay high well past terminal count")
	}
}

func TestGetOutMode2PulsesHighOncePerPeriod(t *testing.T) {
	const count = 5
	for d := uint64(0); d < 3*count; d++ {
		want := d%count == 0 && d != 0
		if got := getOut(Mode2, count, d); got != want {
			t.Fatalf("d=%d: got %v, want %v", d, got, want)
		}
	}
}

func TestGetOutMode3SquareWaveEvenCount(t *testing.T) {
	const count = 4
	// high for ticks [0,2), low for [2,4), repeating.
	cases := map[uint64]bool{0: true, 1: true, 2: false, 3: false, 4: true, 6: false}
	for d, want := range cases {
		if got := getOut(Mode3, count, d); got != want {
			t.Fatalf("d=%d: got %v, want %v", d, got, want)
		}
	}
}

func TestNextTransitionMode0(t *testing.T) {
	const count = 7
	if got := nextTransitionTicks(Mode0, count, 0); got != count {
		t.Fatalf("got %d, want %d", got, count)
	}
	if got := nextTransitionTicks(Mode0, count, count); got != NoTransition {
		t.Fatalf("got %d, want NoTransition", got)
	}
}

func TestNextTransitionMode2Cycles(t *testing.T) {
	const count = 5
	if got := nextTransitionTicks(Mode2, count, 0); got != count+1 {
		t.Fatalf("got %d, want %d", got, count+1)
	}
	if got := nextTransitionTicks(Mode2, count, count); got != 2*count {
		t.Fatalf("got %d, want %d", got, 2*count)
	}
}

func TestGetCountMode2ReloadsAtPeriodBoundary(t *testing.T) {
	const count = 6
	if got := getCount(Mode2, count, 0); got != count {
		t.Fatalf("d=0: got %d, want %d", got, count)
	}
	if got := getCount(Mode2, count, count); got != count {
		t.Fatalf("d=count (reload boundary): got %d, want %d", got, count)
	}
	if got := getCount(Mode2, count, 1); got != count-1 {
		t.Fatalf("d=1: got %d, want %d", got, count-1)
	}
}
