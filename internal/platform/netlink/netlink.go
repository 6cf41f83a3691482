// Package netlink reports the state of the primary network interface. The
// probe is a local kernel query, instantaneous and side-effect free, so the
// link manager treats it as a status check rather than a connection attempt.
package netlink

import (
	"net"

	"github.com/ZerepL/smart-espresso/internal/supervisor/link"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

// Interface probes one named network interface.
type Interface struct {
	name   string
	logger log.Logger
}

// NewInterface builds the probe for the given interface name, e.g. "wlan0".
func NewInterface(name string, logger log.Logger) *Interface {
	return &Interface{
		name:   name,
		logger: logger.WithName("netlink"),
	}
}

// Status reports up only when the interface is administratively up and holds
// a global unicast address. Link-local-only means DHCP has not completed and
// counts as down.
func (i *Interface) Status() link.Status {
	if i.currentAddress() == "" {
		return link.StatusDown
	}
	return link.StatusUp
}

// CurrentAddress returns the interface's first global unicast address, or the
// empty string when the link is down.
func (i *Interface) CurrentAddress() string {
	return i.currentAddress()
}

func (i *Interface) currentAddress() string {
	iface, err := net.InterfaceByName(i.name)
	if err != nil {
		i.logger.Debug("Interface lookup failed", "interface", i.name, "error", err)
		return ""
	}

	if iface.Flags&net.FlagUp == 0 {
		return ""
	}

	addrs, err := iface.Addrs()
	if err != nil {
		i.logger.Debug("Interface address query failed", "interface", i.name, "error", err)
		return ""
	}

	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ipnet.IP.IsGlobalUnicast() {
			return ipnet.IP.String()
		}
	}
	return ""
}
