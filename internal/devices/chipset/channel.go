package chipset

// Mode is one of the 8254's six operating modes. The control-word decoder
// folds mode fields 6 and 7 onto 2 and 3, so Mode is always in 0..5.
type Mode uint8

const (
	Mode0 Mode = iota // interrupt on terminal count
	Mode1             // hardware re-triggerable one-shot
	Mode2             // rate generator
	Mode3             // square wave generator
	Mode4             // software triggered strobe
	Mode5             // hardware triggered strobe
)

// RWMode is how a 16-bit counter crosses the 8-bit bus: latch-only, low
// byte only, high byte only, or low-then-high. The zero value also
// doubles as "no latch pending" for channel.countLatched.
type RWMode uint8

const (
	rwNone     RWMode = iota // no access mode programmed / no latch pending
	rwLowByte                // LSB only
	rwHighByte               // MSB only
	rwLowHigh                // LSB then MSB
)

// byteState names the four states of the read/write byte sequencers,
// rather than leaving them as raw 1..4 integers.
type byteState uint8

const (
	stateUnset byteState = iota // no access mode programmed yet (post-reset)
	stateLSB
	stateMSB
	stateWord0
	stateWord1
)

// channel is the mutable state of one of the three counters. All
// arithmetic here is in terms of the effective reload value (1..65536,
// with a programmed 0 read back as 65536) and a virtual-clock instant;
// the pure functions that turn those into counter/OUT/next-transition
// values live in timemodel.go.
type channel struct {
	index int

	count         uint32 // effective reload, 1..65536 (0 is never stored)
	countLoadTime int64  // virtual-clock instant count was last (re)loaded

	mode Mode
	bcd  bool
	gate bool

	rwMode     RWMode
	readState  byteState
	writeState byteState
	writeLatch byte

	latchedCount uint16
	countLatched RWMode // rwNone if no latch is pending

	statusLatched bool
	status        byte

	// nextTransitionTime is channel 0's scheduler bookkeeping; channels 1
	// and 2 never populate it.
	nextTransitionTime int64
	hasNextTransition  bool

	timer timerHandle
}

// newChannel builds a channel in its zero state; reset(...) must be
// called before it is used.
func newChannel(index int) *channel {
	return &channel{index: index}
}

// reset restores power-on state: mode 3, gate held high for channels 0
// and 1 (channel 2's gate is externally driven), and a count load of 0
// (i.e. 65536).
func (ch *channel) reset(now int64) {
	ch.mode = Mode3
	ch.bcd = false
	ch.gate = ch.index != 2
	ch.rwMode = rwNone
	ch.readState = stateUnset
	ch.writeState = stateUnset
	ch.writeLatch = 0
	ch.latchedCount = 0
	ch.countLatched = rwNone
	ch.statusLatched = false
	ch.status = 0
	ch.loadCount(0, now)
}

// loadCount stores v as the effective reload (0 encodes 65536) and stamps
// count_load_time. A latch taken before this reload is left untouched —
// it is a snapshot of the counter at the moment it was latched, and stays
// readable until the guest actually reads it, independent of whatever the
// counter does afterward.
func (ch *channel) loadCount(v uint16, now int64) {
	count := uint32(v)
	if count == 0 {
		count = 1 << 16
	}
	ch.count = count
	ch.countLoadTime = now
}

// setControl applies a (non-latch, non-read-back) control word to this
// channel. access must be rwLowByte, rwHighByte or rwLowHigh (rwNone is
// handled by the caller as a bare latch request, never reaching here).
// It never reschedules channel 0 by itself — the schedule only moves
// when a new count is actually loaded.
func (ch *channel) setControl(access RWMode, mode Mode, bcd bool) {
	ch.rwMode = access
	ch.readState = byteState(access)
	ch.writeState = byteState(access)
	ch.mode = mode
	ch.bcd = bcd
}

// ticksSince returns the number of whole PIT ticks elapsed since this
// channel's count was loaded, as of now.
func (ch *channel) ticksSince(now int64) uint64 {
	return ticksElapsed(now - ch.countLoadTime)
}

// getCount returns the live 16-bit counter snapshot at now.
func (ch *channel) getCount(now int64) uint16 {
	return getCount(ch.mode, ch.count, ch.ticksSince(now))
}

// getOut returns the live OUT level at now.
func (ch *channel) getOut(now int64) bool {
	return getOut(ch.mode, ch.count, ch.ticksSince(now))
}

// nextTransitionTimeAt returns the next host-time instant at which OUT
// will change, or (0, false) if none is predicted. A predicted instant
// that rounds back to now or earlier is nudged one nanosecond forward so
// callers never arm a timer in the past.
func (ch *channel) nextTransitionTimeAt(now int64) (int64, bool) {
	ticks := nextTransitionTicks(ch.mode, ch.count, ch.ticksSince(now))
	if ticks == NoTransition {
		return 0, false
	}
	t := ch.countLoadTime + ticksToNanos(ticks)
	if t <= now {
		t = now + 1
	}
	return t, true
}

// latchCount snapshots the live counter for the read port, idempotently:
// a second latch command before the first is read back has no effect.
func (ch *channel) latchCount(now int64) {
	if ch.countLatched != rwNone {
		return
	}
	ch.latchedCount = ch.getCount(now)
	ch.countLatched = ch.rwMode
}

// latchStatus snapshots the status byte for the read port; a second latch
// before it is consumed is a no-op, matching latchCount.
func (ch *channel) latchStatus(now int64) {
	if ch.statusLatched {
		return
	}
	ch.statusLatched = true
	ch.status = ch.statusByte(now)
}

// statusByte packs the read-back status register: OUT, rw_mode, mode,
// bcd. The null-count bit is always reported as 0; this model never
// leaves a load pending in a way that bit could usefully distinguish.
func (ch *channel) statusByte(now int64) byte {
	var b byte
	if ch.getOut(now) {
		b |= 1 << 7
	}
	b |= byte(ch.rwMode&0x3) << 4
	b |= byte(ch.mode&0x7) << 1
	if ch.bcd {
		b |= 1
	}
	return b
}

// setGate applies the gate-input rules: a rising edge in modes 1, 2, 3
// and 5 forces a reload; modes 0 and 4 record the level without pausing
// counting (a deliberate simplification — see DESIGN.md). It reports
// whether a reload happened, so the caller knows whether to reschedule
// channel 0.
func (ch *channel) setGate(level bool, now int64) (reloaded bool) {
	rising := !ch.gate && level
	if rising {
		switch ch.mode {
		case Mode1, Mode2, Mode3, Mode5:
			ch.countLoadTime = now
			reloaded = true
		}
	}
	ch.gate = level
	return reloaded
}
