package chipset

import "testing"

func TestPITSnapshotRoundTrip(t *testing.T) {
	clk := &manualClock{}
	factory := newManualTimerFactory()
	pit := NewPIT(nil, WithPITClock(clk.Source()), WithPITTimerFactory(factory.make))

	writeControl(t, pit, 0x34)
	writeChannel(t, pit, pit.channel0Port(), 0x34)
	writeChannel(t, pit, pit.channel0Port(), 0x12)
	clk.Advance(ticksToNanos(10))

	snap, err := pit.CaptureSnapshot()
	if err != nil {
		t.Fatalf("CaptureSnapshot: %v", err)
	}

	restored := NewPIT(nil, WithPITClock(clk.Source()), WithPITTimerFactory(factory.make))
	if err := restored.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	wantCount, _ := pit.ChannelCount(0)
	gotCount, _ := restored.ChannelCount(0)
	if wantCount != gotCount {
		t.Fatalf("count after restore = %d, want %d", gotCount, wantCount)
	}

	wantMode, _ := pit.ChannelMode(0)
	gotMode, _ := restored.ChannelMode(0)
	if wantMode != gotMode {
		t.Fatalf("mode after restore = %v, want %v", gotMode, wantMode)
	}
}

func TestPITSnapshotRejectsWrongType(t *testing.T) {
	pit := NewPIT(nil)
	if err := pit.RestoreSnapshot("not a snapshot"); err == nil {
		t.Fatalf("expected an error restoring a mistyped snapshot")
	}
}

func TestPITSnapshotVersion1ReconstructsSchedule(t *testing.T) {
	clk := &manualClock{}
	factory := newManualTimerFactory()
	pit := NewPIT(nil, WithPITClock(clk.Source()), WithPITTimerFactory(factory.make))

	writeControl(t, pit, 0x34)
	writeChannel(t, pit, pit.channel0Port(), 0x10)
	writeChannel(t, pit, pit.channel0Port(), 0x00)

	raw, err := pit.CaptureSnapshot()
	if err != nil {
		t.Fatalf("CaptureSnapshot: %v", err)
	}
	snap := raw.(*pitSnapshot)
	snap.Version = pitSnapshotVersion1
	for i := range snap.Channels {
		snap.Channels[i].NextTransitionTime = 0
		snap.Channels[i].HasNextTransition = false
	}

	restored := NewPIT(nil, WithPITClock(clk.Source()), WithPITTimerFactory(factory.make))
	before := len(factory.timers)
	if err := restored.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot(version 1): %v", err)
	}
	if len(factory.timers) <= before {
		t.Fatalf("restoring a version-1 snapshot should still rearm channel 0")
	}
	mode, _ := restored.ChannelMode(0)
	if mode != Mode2 {
		t.Fatalf("mode after version-1 restore = %v, want Mode2", mode)
	}
}

func TestDualPICSnapshotRoundTrip(t *testing.T) {
	pic := NewDualPIC()
	programPIC(t, pic)
	pic.SetIRQ(3, true)

	snap, err := pic.CaptureSnapshot()
	if err != nil {
		t.Fatalf("CaptureSnapshot: %v", err)
	}

	restored := NewDualPIC()
	if err := restored.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	requested, vec := restored.Acknowledge()
	if !requested || vec != 0x30+3 {
		t.Fatalf("restored PIC did not preserve the pending IRQ 3: requested=%v vec=0x%x", requested, vec)
	}
}
