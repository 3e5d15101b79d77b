// Package config loads the PIT's device properties from a YAML file, in
// the shape of the teacher's site-config loader: tolerant of a missing
// file, with soft failures logged rather than propagated.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// PITConfig holds the device's two externally wired properties.
type PITConfig struct {
	// IRQ is the interrupt line channel 0 is wired to on the connected
	// controller. Real PC chipsets fix this at 0.
	IRQ uint8 `yaml:"irq"`

	// IOBase is the first of the four consecutive I/O ports the device
	// claims (counter 0, counter 1, counter 2, control word).
	IOBase uint16 `yaml:"iobase"`
}

// DefaultPITConfig matches the legacy PC/AT wiring (irq 0, base 0x40).
func DefaultPITConfig() PITConfig {
	return PITConfig{IRQ: 0, IOBase: 0x40}
}

// Load reads path and decodes a PITConfig. A missing file is not an error:
// the defaults are returned and a debug line is logged, matching the
// teacher's LoadSiteConfig behavior for optional deployment config.
func Load(path string) (PITConfig, error) {
	cfg := DefaultPITConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("pit config not found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.IOBase == 0 {
		slog.Warn("pit config set iobase to 0, falling back to default", "path", path)
		cfg.IOBase = DefaultPITConfig().IOBase
	}

	return cfg, nil
}
