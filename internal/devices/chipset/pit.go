package chipset

import (
	"fmt"
	"sync"

	"github.com/vmcore/pit8254/internal/debug"
	"github.com/vmcore/pit8254/internal/hostclock"
	"github.com/vmcore/pit8254/internal/hv"
)

var trace = debug.WithSource("pit")

// defaultIOBase is the legacy PC/AT wiring: counters 0-2 at 0x40-0x42,
// the control word at 0x43.
const defaultIOBase uint16 = 0x40

// PIT emulates the 8253/8254 programmable interval timer: three
// independent down counters sharing one control-word port, with channel
// 0's output wired to an interrupt line.
type PIT struct {
	mu sync.Mutex

	ioBase  uint16
	irqLine uint8

	clock        hostclock.Source
	irq          irqLine
	timerFactory timerFactory

	channels [3]*channel
}

// PITOption customizes a PIT at construction, mainly for tests and
// alternate chipset wiring.
type PITOption func(*PIT)

// WithPITClock overrides the virtual-clock source the core reads its
// "now" from.
func WithPITClock(clock hostclock.Source) PITOption {
	return func(p *PIT) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithPITTimerFactory injects a custom host-timer factory, used in tests
// to fire channel 0's scheduled transitions manually instead of waiting
// on real time.
func WithPITTimerFactory(factory timerFactory) PITOption {
	return func(p *PIT) {
		if factory != nil {
			p.timerFactory = factory
		}
	}
}

// WithPITIOBase overrides the base I/O port (default 0x40).
func WithPITIOBase(base uint16) PITOption {
	return func(p *PIT) {
		if base != 0 {
			p.ioBase = base
		}
	}
}

// WithPITIRQLine overrides which IRQ line channel 0's output drives
// (default 0).
func WithPITIRQLine(line uint8) PITOption {
	return func(p *PIT) {
		p.irqLine = line
	}
}

// NewPIT builds a PIT in its power-on state, wired to irq.
func NewPIT(irq irqLine, opts ...PITOption) *PIT {
	p := &PIT{
		ioBase:       defaultIOBase,
		clock:        hostclock.Default(),
		irq:          irq,
		timerFactory: defaultTimerFactory,
	}
	if p.irq == nil {
		p.irq = noopIRQLine{}
	}
	for i := range p.channels {
		p.channels[i] = newChannel(i)
	}
	for _, opt := range opts {
		opt(p)
	}

	now := p.clock.NowNano()
	for _, ch := range p.channels {
		ch.reset(now)
	}
	p.rescheduleChannel0Locked(now)
	return p
}

// Init implements hv.Device. The PIT has no use for the owning VM beyond
// the irqLine it was constructed with.
func (p *PIT) Init(vm hv.VirtualMachine) error {
	return nil
}

func (p *PIT) now() int64 { return p.clock.NowNano() }

func (p *PIT) channel0Port() uint16 { return p.ioBase }
func (p *PIT) channel1Port() uint16 { return p.ioBase + 1 }
func (p *PIT) channel2Port() uint16 { return p.ioBase + 2 }
func (p *PIT) controlPort() uint16  { return p.ioBase + 3 }

// IOPorts implements hv.X86IOPortDevice.
func (p *PIT) IOPorts() []uint16 {
	return []uint16{p.channel0Port(), p.channel1Port(), p.channel2Port(), p.controlPort()}
}

// ReadIOPort implements hv.X86IOPortDevice.
func (p *PIT) ReadIOPort(ctx hv.ExitContext, port uint16, data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("pit: invalid read size %d", len(data))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch port {
	case p.channel0Port(), p.channel1Port(), p.channel2Port():
		idx := int(port - p.ioBase)
		data[0] = readCountByte(p.channels[idx], p.now())
		trace.Writef("read ch%d -> 0x%02x", idx, data[0])
	case p.controlPort():
		// The control word port is write-only on real hardware; reads
		// return the bus floating value.
		data[0] = 0xFF
	default:
		return fmt.Errorf("pit: invalid read port 0x%04x", port)
	}
	return nil
}

// WriteIOPort implements hv.X86IOPortDevice.
func (p *PIT) WriteIOPort(ctx hv.ExitContext, port uint16, data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("pit: invalid write size %d", len(data))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch port {
	case p.channel0Port(), p.channel1Port(), p.channel2Port():
		idx := int(port - p.ioBase)
		trace.Writef("write ch%d <- 0x%02x", idx, data[0])
		if loaded := writeCountByte(p.channels[idx], data[0], p.now()); loaded && idx == 0 {
			p.rescheduleChannel0Locked(p.now())
		}
	case p.controlPort():
		trace.Writef("write control <- 0x%02x", data[0])
		p.writeControlLocked(data[0])
	default:
		return fmt.Errorf("pit: invalid write port 0x%04x", port)
	}
	return nil
}

func (p *PIT) writeControlLocked(value byte) {
	cw := controlWord(value)
	if cw.isReadBack() {
		p.handleReadBackLocked(value)
		return
	}

	ch := p.channels[cw.channel()]
	access := cw.access()
	if access == rwNone {
		ch.latchCount(p.now())
		return
	}

	// A bare mode/access change never reschedules on its own: the
	// schedule only moves when a new count is actually loaded.
	ch.setControl(access, cw.mode(), cw.bcd())
}

func (p *PIT) handleReadBackLocked(value byte) {
	cmd := readBackCommand(value)
	now := p.now()
	for i, ch := range p.channels {
		if !cmd.selectsChannel(i) {
			continue
		}
		if cmd.shouldLatchStatus() {
			ch.latchStatus(now)
		}
		if cmd.shouldLatchCount() {
			ch.latchCount(now)
		}
	}
}

// SetGate drives the gate input of channel idx (0, 1, or 2). In-tree,
// port 0x61 and the pitctl/pitmon tools drive it only for channel 2; the
// primary chipset ties channels 0 and 1's gates high permanently.
func (p *PIT) SetGate(idx int, level bool) error {
	if idx < 0 || idx > 2 {
		return fmt.Errorf("pit: invalid channel %d", idx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch := p.channels[idx]
	if reloaded := ch.setGate(level, p.now()); reloaded && idx == 0 {
		p.rescheduleChannel0Locked(p.now())
	}
	return nil
}

// ChannelOutputLevel reports channel idx's live OUT level, the signal
// port 0x61 bit 5 and the PC speaker path read off channel 2.
func (p *PIT) ChannelOutputLevel(idx int) (bool, error) {
	if idx < 0 || idx > 2 {
		return false, fmt.Errorf("pit: invalid channel %d", idx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[idx].getOut(p.now()), nil
}

// ChannelCount reports channel idx's live counter value without
// disturbing any pending latch, for diagnostics (cmd/pitmon, cmd/pitctl).
func (p *PIT) ChannelCount(idx int) (uint16, error) {
	if idx < 0 || idx > 2 {
		return 0, fmt.Errorf("pit: invalid channel %d", idx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[idx].getCount(p.now()), nil
}

// ChannelMode reports channel idx's programmed operating mode.
func (p *PIT) ChannelMode(idx int) (Mode, error) {
	if idx < 0 || idx > 2 {
		return 0, fmt.Errorf("pit: invalid channel %d", idx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[idx].mode, nil
}

// HPETDisable is the hpet_pit_disable hook: an external HPET taking over
// legacy interrupt routing cancels channel 0's pending host timer. No
// other state changes, and no IRQ transitions occur until HPETEnable
// reschedules.
func (p *PIT) HPETDisable() {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := p.channels[0]
	if ch.timer != nil {
		ch.timer.Stop()
		ch.timer = nil
	}
}

// HPETEnable is the hpet_pit_enable hook: channel 0 is reprogrammed to
// mode 3, gate 1, count 0 (65536), and the scheduler reschedules from
// the current instant.
func (p *PIT) HPETEnable() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	ch := p.channels[0]
	ch.mode = Mode3
	ch.gate = true
	ch.loadCount(0, now)
	p.rescheduleChannel0Locked(now)
}

// Reset restores every channel to its power-on state: mode 3, gate held
// high except on channel 2, a full-scale count load, and channel 0's
// schedule rearmed from the current instant.
func (p *PIT) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for _, ch := range p.channels {
		if ch.timer != nil {
			ch.timer.Stop()
			ch.timer = nil
		}
		ch.reset(now)
	}
	p.rescheduleChannel0Locked(now)
}

var (
	_ hv.Device          = (*PIT)(nil)
	_ hv.X86IOPortDevice = (*PIT)(nil)
)
