package chipset

// controlWord is a decoded control-register write (the 0x43 port). A
// select field of 3 means "read-back command", which readBackCommand
// decodes separately; the other three values name a channel.
type controlWord byte

func (c controlWord) selectField() byte { return byte(c>>6) & 0x3 }
func (c controlWord) isReadBack() bool  { return c.selectField() == 0x3 }
func (c controlWord) channel() int      { return int(c.selectField()) }
func (c controlWord) access() RWMode    { return RWMode((c >> 4) & 0x3) }

func (c controlWord) mode() Mode {
	m := Mode((c >> 1) & 0x7)
	// Modes 6 and 7 are documented aliases for 2 and 3 (the mode field's
	// top bit is ignored).
	switch m {
	case 6:
		return Mode2
	case 7:
		return Mode3
	default:
		return m
	}
}

func (c controlWord) bcd() bool { return c&0x1 != 0 }

// readBackCommand is a decoded read-back control word (select field 3).
// Bit layout: 1·1·¬COUNT·¬STATUS·SC2·SC1·SC0·0 — the latch/status bits
// are active low (clear means "do it"), the channel-select bits active
// high.
type readBackCommand byte

func (c readBackCommand) selectsChannel(i int) bool { return byte(c)>>(1+uint(i))&1 == 1 }
func (c readBackCommand) shouldLatchCount() bool    { return byte(c)>>5&1 == 0 }
func (c readBackCommand) shouldLatchStatus() bool   { return byte(c)>>4&1 == 0 }

// writeCountByte feeds one byte of a counter write through the channel's
// write-byte state machine, returning true once a full reload value has
// landed (at which point the caller must reschedule channel 0 if idx ==
// 0). Writes mid-way through a WORD0/WORD1 pair do not reload.
func writeCountByte(ch *channel, value byte, now int64) (loaded bool) {
	switch ch.writeState {
	case stateLSB:
		ch.loadCount(uint16(value), now)
		return true
	case stateMSB:
		ch.loadCount(uint16(value)<<8, now)
		return true
	case stateWord0:
		ch.writeLatch = value
		ch.writeState = stateWord1
		return false
	case stateWord1:
		ch.writeState = stateWord0
		ch.loadCount(uint16(value)<<8|uint16(ch.writeLatch), now)
		return true
	default:
		// stateUnset: a guest wrote a count byte before ever sending a
		// control word. Real hardware has no defined behavior here; drop
		// the byte rather than guess at a reload.
		return false
	}
}

// readCountByte produces the next byte a read of this channel's counter
// port should return: a pending status byte first, then a pending
// latched count, then the live counter value — each dispatched through
// its own byte sequencer, exactly as the register interface specifies.
func readCountByte(ch *channel, now int64) byte {
	if ch.statusLatched {
		ch.statusLatched = false
		return ch.status
	}

	if ch.countLatched != rwNone {
		return readLatchedByte(ch)
	}

	switch ch.readState {
	case stateLSB:
		return byte(ch.getCount(now))
	case stateMSB:
		return byte(ch.getCount(now) >> 8)
	case stateWord0:
		ch.readState = stateWord1
		return byte(ch.getCount(now))
	case stateWord1:
		ch.readState = stateWord0
		return byte(ch.getCount(now) >> 8)
	default:
		// stateUnset: a guest read the counter port before ever sending a
		// control word. Fall back to the LSB, same as rwLowByte.
		return byte(ch.getCount(now))
	}
}

// readLatchedByte consumes one byte of a pending count latch. A
// byte-only latch (LSB or MSB) clears on its single read; a word latch
// walks count_latched from WORD0 to MSB as an internal "second byte
// pending" marker before clearing, independent of read_state.
func readLatchedByte(ch *channel) byte {
	switch ch.countLatched {
	case rwLowByte:
		ch.countLatched = rwNone
		return byte(ch.latchedCount)
	case rwHighByte:
		ch.countLatched = rwNone
		return byte(ch.latchedCount >> 8)
	case rwLowHigh:
		ch.countLatched = rwHighByte
		return byte(ch.latchedCount)
	default:
		ch.countLatched = rwNone
		return byte(ch.latchedCount)
	}
}
