package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Safety holds guard rails for operations that write to block devices.
type Safety struct {
	// AllowedDevices is a list of glob patterns. When non-empty, restore
	// refuses any device that matches none of them.
	AllowedDevices []string `mapstructure:"allowed_devices"`
}

// Allows reports whether the device path passes the allowlist. An empty
// allowlist allows every device.
func (s Safety) Allows(devicePath string) (bool, error) {
	if len(s.AllowedDevices) == 0 {
		return true, nil
	}

	for _, pattern := range s.AllowedDevices {
		g, err := glob.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("invalid allowed_devices pattern %q: %w", pattern, err)
		}
		if g.Match(devicePath) {
			return true, nil
		}
	}

	return false, nil
}
