package chipset

import (
	"encoding/gob"
	"fmt"

	"github.com/vmcore/pit8254/internal/hv"
)

func init() {
	gob.Register(&pitSnapshot{})
	gob.Register(&dualPICSnapshot{})
}

const (
	pitSnapshotVersion1 = 1
	pitSnapshotVersion2 = 2
)

// channelSnapshot is the per-channel persisted-state layout: count (32
// bits), the latch/sequencer bookkeeping, the control fields, and the
// two timing instants. A version-1 snapshot predates next_transition_time
// and leaves it zero; RestoreSnapshot reconstructs it by rearming from
// the instant the snapshot is loaded at.
type channelSnapshot struct {
	Count         uint32
	LatchedCount  uint16
	CountLatched  RWMode
	StatusLatched bool
	Status        byte
	ReadState     byteState
	WriteState    byteState
	WriteLatch    byte
	RWMode        RWMode
	Mode          Mode
	BCD           bool
	Gate          bool

	CountLoadTime      int64
	NextTransitionTime int64
	HasNextTransition  bool
}

// pitSnapshot is the PIT's full save/restore payload.
type pitSnapshot struct {
	Version  int
	IOBase   uint16
	IRQLine  uint8
	Channels [3]channelSnapshot
}

// DeviceId implements hv.DeviceSnapshotter.
func (p *PIT) DeviceId() string { return "pit8254" }

// CaptureSnapshot implements hv.DeviceSnapshotter.
func (p *PIT) CaptureSnapshot() (hv.DeviceSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := &pitSnapshot{
		Version: pitSnapshotVersion2,
		IOBase:  p.ioBase,
		IRQLine: p.irqLine,
	}
	for i, ch := range p.channels {
		snap.Channels[i] = channelSnapshot{
			Count:              ch.count,
			LatchedCount:       ch.latchedCount,
			CountLatched:       ch.countLatched,
			StatusLatched:      ch.statusLatched,
			Status:             ch.status,
			ReadState:          ch.readState,
			WriteState:         ch.writeState,
			WriteLatch:         ch.writeLatch,
			RWMode:             ch.rwMode,
			Mode:               ch.mode,
			BCD:                ch.bcd,
			Gate:               ch.gate,
			CountLoadTime:      ch.countLoadTime,
			NextTransitionTime: ch.nextTransitionTime,
			HasNextTransition:  ch.hasNextTransition,
		}
	}
	return snap, nil
}

// RestoreSnapshot implements hv.DeviceSnapshotter. A version-1 payload
// omits next_transition_time; the channel-0 schedule is reconstructed by
// rearming from the restore instant rather than trusting a zero value.
func (p *PIT) RestoreSnapshot(snap hv.DeviceSnapshot) error {
	data, ok := snap.(*pitSnapshot)
	if !ok {
		return fmt.Errorf("pit: invalid snapshot type %T", snap)
	}
	if data.Version != pitSnapshotVersion1 && data.Version != pitSnapshotVersion2 {
		return fmt.Errorf("pit: unsupported snapshot version %d", data.Version)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.ioBase = data.IOBase
	p.irqLine = data.IRQLine

	now := p.now()
	for i := range p.channels {
		cs := data.Channels[i]
		ch := p.channels[i]
		if ch.timer != nil {
			ch.timer.Stop()
			ch.timer = nil
		}
		ch.count = cs.Count
		ch.latchedCount = cs.LatchedCount
		ch.countLatched = cs.CountLatched
		ch.statusLatched = cs.StatusLatched
		ch.status = cs.Status
		ch.readState = cs.ReadState
		ch.writeState = cs.WriteState
		ch.writeLatch = cs.WriteLatch
		ch.rwMode = cs.RWMode
		ch.mode = cs.Mode
		ch.bcd = cs.BCD
		ch.gate = cs.Gate
		ch.countLoadTime = cs.CountLoadTime
		if data.Version >= pitSnapshotVersion2 {
			ch.nextTransitionTime = cs.NextTransitionTime
			ch.hasNextTransition = cs.HasNextTransition
		}
	}

	p.rescheduleChannel0Locked(now)
	return nil
}

var _ hv.DeviceSnapshotter = (*PIT)(nil)

// dualPICSnapshot is DualPIC's save/restore payload: the two 8259s plus
// the chain-IRQ line they compute on sync, which is derived state but
// cheap enough to carry across a restore without recomputation ordering
// concerns.
type dualPICSnapshot struct {
	Pics [2]pic8259Snapshot
}

type pic8259Snapshot struct {
	InitStage picInitStage
	ICW2      byte
	IMR       byte
	OCW3      picOCW3
	ISR       byte
	ELCR      byte
	Lines     byte
	LineLow   byte
}

// DeviceId implements hv.DeviceSnapshotter.
func (p *DualPIC) DeviceId() string { return "dual-pic" }

// CaptureSnapshot implements hv.DeviceSnapshotter.
func (p *DualPIC) CaptureSnapshot() (hv.DeviceSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := &dualPICSnapshot{}
	for i, pic := range p.pics {
		snap.Pics[i] = pic8259Snapshot{
			InitStage: pic.initStage,
			ICW2:      pic.icw2,
			IMR:       pic.imr,
			OCW3:      pic.ocw3,
			ISR:       pic.isr,
			ELCR:      pic.elcr,
			Lines:     pic.lines,
			LineLow:   pic.lineLow,
		}
	}
	return snap, nil
}

// RestoreSnapshot implements hv.DeviceSnapshotter.
func (p *DualPIC) RestoreSnapshot(snap hv.DeviceSnapshot) error {
	data, ok := snap.(*dualPICSnapshot)
	if !ok {
		return fmt.Errorf("dual-pic: invalid snapshot type %T", snap)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i, ps := range data.Pics {
		p.pics[i].initStage = ps.InitStage
		p.pics[i].icw2 = ps.ICW2
		p.pics[i].imr = ps.IMR
		p.pics[i].ocw3 = ps.OCW3
		p.pics[i].isr = ps.ISR
		p.pics[i].elcr = ps.ELCR
		p.pics[i].lines = ps.Lines
		p.pics[i].lineLow = ps.LineLow
	}
	p.syncOutputsLocked()
	return nil
}

var _ hv.DeviceSnapshotter = (*DualPIC)(nil)
