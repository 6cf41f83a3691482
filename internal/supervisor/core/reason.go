package core

// RestartReason categorizes why a supervised restart was executed. The value
// is persisted in the restart record, so the numeric order of the variants is
// part of the retention layout and must not change.
type RestartReason uint8

const (
	ReasonUser RestartReason = iota
	ReasonWatchdog
	ReasonMemory
	ReasonLinkPrimary
	ReasonLinkBroker
	ReasonHealth
	ReasonUnknown
	ReasonPowerOn

	// NumReasons is the number of persisted reason counters.
	NumReasons = int(ReasonPowerOn) + 1
)

func (r RestartReason) String() string {
	switch r {
	case ReasonUser:
		return "user"
	case ReasonWatchdog:
		return "watchdog"
	case ReasonMemory:
		return "memory"
	case ReasonLinkPrimary:
		return "link-primary"
	case ReasonLinkBroker:
		return "link-broker"
	case ReasonHealth:
		return "health"
	case ReasonPowerOn:
		return "power-on"
	default:
		return "unknown"
	}
}
