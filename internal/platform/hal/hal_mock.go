//go:build !linux

package hal

import (
	"time"

	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

type mockHAL struct {
	cfg    Config
	logger log.Logger
}

// New returns a mock that logs actuations instead of touching hardware.
// Dispense still blocks for the pour duration so the timing behavior matches
// the board.
func New(cfg Config, logger log.Logger) (core.HAL, error) {
	return &mockHAL{
		cfg:    cfg,
		logger: logger.WithName("hal").WithValues("mock", true),
	}, nil
}

func (h *mockHAL) PowerOn() error {
	h.logger.Info("Boiler relay on")
	return nil
}

func (h *mockHAL) Dispense() error {
	h.logger.Info("Pump on", "duration", h.cfg.PourDuration)
	time.Sleep(h.cfg.PourDuration)
	h.logger.Info("Pump off")
	return nil
}

func (h *mockHAL) FeedWatchdog() {}

// Reboot returns instead of restarting the host; the caller exits with a
// restart code and the process supervisor relaunches the binary.
func (h *mockHAL) Reboot() error {
	h.logger.Warn("Mock reboot, expecting process supervisor to relaunch")
	return nil
}
