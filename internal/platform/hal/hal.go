// Package hal drives the appliance hardware: the boiler relay, the dispense
// pump, the hardware watchdog and the reboot path. A build-tagged mock stands
// in on non-Linux hosts so the whole firmware runs on a development machine.
package hal

import (
	"time"

	"github.com/spf13/pflag"
)

// Config locates the hardware attachment points.
type Config struct {
	// BoilerGPIO is the sysfs path of the boiler relay value file.
	BoilerGPIO string `json:"boiler-gpio" mapstructure:"boiler-gpio"`

	// PumpGPIO is the sysfs path of the dispense pump value file.
	PumpGPIO string `json:"pump-gpio" mapstructure:"pump-gpio"`

	// WatchdogDevice is the hardware watchdog character device.
	WatchdogDevice string `json:"watchdog-device" mapstructure:"watchdog-device"`

	// PourDuration is how long the pump runs per dispense. Dispense blocks
	// for exactly this long.
	PourDuration time.Duration `json:"pour-duration" mapstructure:"pour-duration"`
}

// DefaultConfig matches the reference board wiring.
func DefaultConfig() Config {
	return Config{
		BoilerGPIO:     "/sys/class/gpio/gpio17/value",
		PumpGPIO:       "/sys/class/gpio/gpio27/value",
		WatchdogDevice: "/dev/watchdog",
		PourDuration:   700 * time.Millisecond,
	}
}

// AddFlags binds the hardware paths to the given FlagSet.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.BoilerGPIO, "hal.boiler-gpio", c.BoilerGPIO, "Sysfs value file of the boiler relay GPIO.")
	fs.StringVar(&c.PumpGPIO, "hal.pump-gpio", c.PumpGPIO, "Sysfs value file of the dispense pump GPIO.")
	fs.StringVar(&c.WatchdogDevice, "hal.watchdog-device", c.WatchdogDevice, "Hardware watchdog device path (empty disables).")
	fs.DurationVar(&c.PourDuration, "hal.pour-duration", c.PourDuration, "Pump run time per dispense.")
}
