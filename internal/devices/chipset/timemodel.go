package chipset

import "math/bits"

// PITFreq is the reference frequency of the 8253/8254 counter clock.
const PITFreq = 1193182

// TicksPerSec is the resolution of the virtual-clock timestamps the core
// is handed (nanoseconds).
const TicksPerSec = 1_000_000_000

// NoTransition is the sentinel value reported by nextTransitionTicks when a
// channel's output will never change again under the current program
// ((*channel).nextTransitionTimeAt reports the same case as ok == false).
const NoTransition = ^uint64(0)

// muldiv64 computes value*num/den without intermediate overflow, using the
// 128-bit product bits.Mul64 produces. value, num and den must be
// non-negative; callers guarantee current_time >= count_load_time so the
// only caller-visible argument, elapsed time, is always >= 0.
func muldiv64(value, num, den uint64) uint64 {
	hi, lo := bits.Mul64(value, num)
	if hi == 0 {
		return lo / den
	}
	q, _ := bits.Div64(hi, lo, den)
	return q
}

// ticksElapsed converts a nanosecond duration since count_load_time into a
// count of whole PIT ticks.
func ticksElapsed(elapsedNanos int64) uint64 {
	if elapsedNanos <= 0 {
		return 0
	}
	return muldiv64(uint64(elapsedNanos), PITFreq, TicksPerSec)
}

// ticksToNanos is the inverse conversion, used to turn a predicted
// transition tick count back into a host-time deadline.
func ticksToNanos(ticks uint64) int64 {
	return int64(muldiv64(ticks, TicksPerSec, PITFreq))
}

// getCount returns the live value of the down counter. count is the
// effective reload value (1..65536); d is PIT ticks elapsed since load.
func getCount(m Mode, count uint32, d uint64) uint16 {
	switch m {
	case Mode2:
		c := uint64(count)
		if rem := d % c; rem == 0 {
			return uint16(count)
		} else {
			return uint16(c - rem)
		}
	case Mode3:
		c := uint64(count)
		rem := (2 * d) % c
		return uint16(c - rem)
	default: // Mode0, Mode1, Mode4, Mode5
		dm := d % 0x10000
		val := (int64(count) - int64(dm)) % 0x10000
		if val < 0 {
			val += 0x10000
		}
		return uint16(val)
	}
}

// getOut returns the live level of OUT for the given mode, reload value
// and elapsed ticks.
func getOut(m Mode, count uint32, d uint64) bool {
	c := uint64(count)
	switch m {
	case Mode0:
		return d >= c
	case Mode1:
		return d < c
	case Mode2:
		return d%c == 0 && d != 0
	case Mode3:
		half := (c + 1) / 2
		return d%c < half
	default: // Mode4, Mode5
		return d == c
	}
}

// nextTransitionTicks returns the tick index (relative to count_load_time)
// of the next OUT change, or NoTransition if OUT never changes again
// under the current program.
func nextTransitionTicks(m Mode, count uint32, d uint64) uint64 {
	c := uint64(count)
	switch m {
	case Mode0, Mode1:
		if d < c {
			return c
		}
		return NoTransition
	case Mode2:
		base := (d / c) * c
		if d-base == 0 && d != 0 {
			return base + c
		}
		return base + c + 1
	case Mode3:
		base := (d / c) * c
		half := (c + 1) / 2
		if d-base < half {
			return base + half
		}
		return base + c
	default: // Mode4, Mode5
		if d < c {
			return c
		}
		if d == c {
			return c + 1
		}
		return NoTransition
	}
}
