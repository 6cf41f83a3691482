package core

// HAL is the hardware abstraction the supervisor drives. Production builds
// talk to GPIO, /dev/watchdog and the kernel reboot syscall; development
// builds get a mock.
type HAL interface {
	// PowerOn energizes the boiler relay. Synchronous and fast.
	PowerOn() error

	// Dispense runs the pour actuation. Synchronous; blocks for the fixed
	// pour duration. This is the one blocking call permitted in the loop.
	Dispense() error

	// FeedWatchdog strobes the hardware watchdog. Must be called at least
	// once per watchdog period or the hardware resets the board.
	FeedWatchdog()

	// Reboot executes the supervised restart. It does not return on real
	// hardware.
	Reboot() error
}
