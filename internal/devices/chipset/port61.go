package chipset

import "github.com/vmcore/pit8254/internal/hv"

const port61Port uint16 = 0x61

// Port61 is the PC/AT NMI status/control register: bit 0 gates channel
// 2, bit 1 drives the PC speaker data line, and bit 5 reads back channel
// 2's OUT level — the path the BIOS and Linux's early TSC calibration
// use to run a timed busy-loop against a known-frequency counter.
type Port61 struct {
	pit *PIT

	speakerGate bool
	speakerData bool
	refreshToggle bool
}

// NewPort61 wires a Port61 register to pit's channel 2.
func NewPort61(pit *PIT) *Port61 {
	return &Port61{pit: pit}
}

// Init implements hv.Device.
func (p *Port61) Init(vm hv.VirtualMachine) error { return nil }

// IOPorts implements hv.X86IOPortDevice.
func (p *Port61) IOPorts() []uint16 { return []uint16{port61Port} }

// ReadIOPort implements hv.X86IOPortDevice.
func (p *Port61) ReadIOPort(ctx hv.ExitContext, port uint16, data []byte) error {
	if len(data) != 1 || port != port61Port {
		return hv.ErrInterrupted
	}

	var val byte
	if p.speakerGate {
		val |= 1 << 0
	}
	if p.speakerData {
		val |= 1 << 1
	}
	if p.refreshToggle {
		val |= 1 << 4
	}
	if p.pit != nil {
		if out, err := p.pit.ChannelOutputLevel(2); err == nil && out {
			val |= 1 << 5
		}
	}

	// The refresh toggle bit free-runs at roughly the DRAM refresh rate
	// on real hardware; toggling it on every read is a simplification
	// that still satisfies code that merely polls for movement.
	p.refreshToggle = !p.refreshToggle
	data[0] = val
	return nil
}

// WriteIOPort implements hv.X86IOPortDevice.
func (p *Port61) WriteIOPort(ctx hv.ExitContext, port uint16, data []byte) error {
	if len(data) != 1 || port != port61Port {
		return hv.ErrInterrupted
	}

	val := data[0]
	p.speakerGate = val&(1<<0) != 0
	p.speakerData = val&(1<<1) != 0

	if p.pit != nil {
		return p.pit.SetGate(2, p.speakerGate)
	}
	return nil
}

var (
	_ hv.Device          = (*Port61)(nil)
	_ hv.X86IOPortDevice = (*Port61)(nil)
)
