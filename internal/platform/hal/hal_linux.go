//go:build linux

package hal

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

type boardHAL struct {
	cfg      Config
	logger   log.Logger
	watchdog *os.File
}

// New opens the board hardware. The watchdog device is opened once and held;
// closing it without the magic-close byte would fire the watchdog, so the
// file stays open for the life of the process.
func New(cfg Config, logger log.Logger) (core.HAL, error) {
	h := &boardHAL{
		cfg:    cfg,
		logger: logger.WithName("hal"),
	}

	if cfg.WatchdogDevice != "" {
		wd, err := os.OpenFile(cfg.WatchdogDevice, os.O_WRONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("open watchdog %s: %w", cfg.WatchdogDevice, err)
		}
		h.watchdog = wd
	}

	return h, nil
}

func (h *boardHAL) PowerOn() error {
	return h.setGPIO(h.cfg.BoilerGPIO, true)
}

// Dispense runs the pump for the fixed pour duration. This blocks the caller;
// the supervisor accepts that for this one actuation.
func (h *boardHAL) Dispense() error {
	if err := h.setGPIO(h.cfg.PumpGPIO, true); err != nil {
		return err
	}
	time.Sleep(h.cfg.PourDuration)
	return h.setGPIO(h.cfg.PumpGPIO, false)
}

func (h *boardHAL) FeedWatchdog() {
	if h.watchdog == nil {
		return
	}
	if _, err := h.watchdog.Write([]byte{0}); err != nil {
		h.logger.Error(err, "Watchdog feed failed")
	}
}

// Reboot restarts the board. Filesystems are synced first so the retention
// write that preceded this call is durable. Does not return on success.
func (h *boardHAL) Reboot() error {
	h.logger.Warn("Rebooting board")
	syscall.Sync()
	return syscall.Reboot(syscall.LINUX_REBOOT_CMD_RESTART)
}

func (h *boardHAL) setGPIO(path string, on bool) error {
	v := []byte("0")
	if on {
		v = []byte("1")
	}
	if err := os.WriteFile(path, v, 0o644); err != nil {
		return fmt.Errorf("gpio write %s: %w", path, err)
	}
	return nil
}
