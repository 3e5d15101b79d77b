// Command pitctl programs a standalone PIT instance from the command line
// and prints the resulting register state and I/O trace. It is the
// scriptable counterpart to pitmon: one invocation, one program step, no
// interactive loop.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vmcore/pit8254/internal/config"
	"github.com/vmcore/pit8254/internal/debug"
	"github.com/vmcore/pit8254/internal/devices/chipset"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	configPath := fs.String("config", "", "YAML file with irq/iobase overrides")
	channel := fs.Int("channel", -1, "channel to program (0-2); -1 leaves all channels untouched")
	mode := fs.Int("mode", 2, "operating mode (0-5)")
	access := fs.String("access", "lowhigh", "read/write access: low, high, lowhigh, or latch")
	count := fs.Int("count", 0, "reload count (0 means 65536)")
	bcd := fs.Bool("bcd", false, "program BCD counting instead of binary")
	gate := fs.Int("gate", -1, "drive channel 2's gate: 0 or 1; -1 leaves it alone")
	hpetDisable := fs.Bool("hpet-disable", false, "invoke the hpet_pit_disable hook after programming")
	hpetEnable := fs.Bool("hpet-enable", false, "invoke the hpet_pit_enable hook after programming")
	tracePath := fs.String("trace", "", "write the binary I/O trace to this file and dump it on exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	cfg := config.DefaultPITConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pitctl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	trace := *tracePath
	if trace == "" {
		f, err := os.CreateTemp("", "pitctl-trace-*.bin")
		if err != nil {
			fmt.Fprintf(os.Stderr, "pitctl: create trace file: %v\n", err)
			os.Exit(1)
		}
		trace = f.Name()
		f.Close()
		defer os.Remove(trace)
	}
	if err := debug.OpenFile(trace); err != nil {
		fmt.Fprintf(os.Stderr, "pitctl: open trace file: %v\n", err)
		os.Exit(1)
	}

	pic := chipset.NewDualPIC()
	initPIC(pic)

	pit := chipset.NewPIT(pic,
		chipset.WithPITIOBase(cfg.IOBase),
		chipset.WithPITIRQLine(cfg.IRQ),
	)

	if *channel >= 0 {
		if err := program(pit, *channel, *mode, *access, *count, *bcd); err != nil {
			fmt.Fprintf(os.Stderr, "pitctl: %v\n", err)
			os.Exit(1)
		}
	}

	if *gate >= 0 {
		if err := pit.SetGate(2, *gate != 0); err != nil {
			fmt.Fprintf(os.Stderr, "pitctl: %v\n", err)
			os.Exit(1)
		}
	}

	if *hpetDisable {
		pit.HPETDisable()
	}
	if *hpetEnable {
		pit.HPETEnable()
	}

	printState(pit, pic)

	if err := debug.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "pitctl: close trace: %v\n", err)
		os.Exit(1)
	}
	dumpTrace(trace)
}

// program decodes the mode/access/bcd/count flags into a control-word
// write followed by however many count-byte writes the access mode needs,
// the same sequence a guest driver issues against ports 0x40-0x43.
func program(pit *chipset.PIT, channel, mode int, access string, count int, bcd bool) error {
	if channel < 0 || channel > 2 {
		return fmt.Errorf("channel must be 0, 1, or 2, got %d", channel)
	}
	if mode < 0 || mode > 5 {
		return fmt.Errorf("mode must be 0-5, got %d", mode)
	}

	var accessBits byte
	switch access {
	case "low":
		accessBits = 0x1
	case "high":
		accessBits = 0x2
	case "lowhigh":
		accessBits = 0x3
	case "latch":
		accessBits = 0x0
	default:
		return fmt.Errorf("access must be one of low, high, lowhigh, latch; got %q", access)
	}

	cw := byte(channel)<<6 | accessBits<<4 | byte(mode)<<1
	if bcd {
		cw |= 0x1
	}
	if err := pit.WriteIOPort(nil, controlPort(pit), []byte{cw}); err != nil {
		return err
	}
	if accessBits == 0x0 {
		return nil
	}

	port := channelPort(pit, channel)
	n := uint16(count)
	switch accessBits {
	case 0x1:
		return pit.WriteIOPort(nil, port, []byte{byte(n)})
	case 0x2:
		return pit.WriteIOPort(nil, port, []byte{byte(n >> 8)})
	default:
		if err := pit.WriteIOPort(nil, port, []byte{byte(n)}); err != nil {
			return err
		}
		return pit.WriteIOPort(nil, port, []byte{byte(n >> 8)})
	}
}

func controlPort(pit *chipset.PIT) uint16 {
	ports := pit.IOPorts()
	return ports[len(ports)-1]
}

func channelPort(pit *chipset.PIT, channel int) uint16 {
	return pit.IOPorts()[channel]
}

func printState(pit *chipset.PIT, pic *chipset.DualPIC) {
	for ch := 0; ch < 3; ch++ {
		count, err := pit.ChannelCount(ch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pitctl: %v\n", err)
			os.Exit(1)
		}
		mode, _ := pit.ChannelMode(ch)
		out, _ := pit.ChannelOutputLevel(ch)
		fmt.Printf("channel %d: mode=%d count=%d out=%v\n", ch, mode, count, out)
	}

	requested, vec := pic.Acknowledge()
	fmt.Printf("irq: pending=%v vector=0x%02x\n", requested, vec)
}

func dumpTrace(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pitctl: read trace: %v\n", err)
		return
	}
	fmt.Println("trace:")
	debug.Each(data, func(rec debug.Record) error {
		fmt.Printf("  [%s] %s\n", rec.Source, rec.Data)
		return nil
	})
}

// initPIC runs the standard two-controller ICW1-ICW4 sequence so
// Acknowledge reports a real vector instead of the uninitialized spurious
// one, matching what a guest's interrupt-controller driver does at boot.
func initPIC(pic *chipset.DualPIC) {
	writes := []struct {
		port uint16
		data byte
	}{
		{0x20, 0x11}, {0x21, 0x30}, {0x21, 0x04}, {0x21, 0x01},
		{0xa0, 0x11}, {0xa1, 0x38}, {0xa1, 0x02}, {0xa1, 0x01},
	}
	for _, w := range writes {
		pic.WriteIOPort(nil, w.port, []byte{w.data})
	}
}
