package probe

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

var errLinkDown = errors.New("link is down")

// Link is ready when the network interface is administratively up and its
// operational state is up (or unknown, as reported by loopback and tun).
type Link struct {
	Interface string
}

// Check reads the interface state once.
func (c *Link) Check(context.Context) error {
	link, err := netlink.LinkByName(c.Interface)
	if err != nil {
		return fmt.Errorf("link %s: %w", c.Interface, err)
	}

	attrs := link.Attrs()
	if attrs.Flags&net.FlagUp == 0 {
		return fmt.Errorf("%s: %w (admin down)", c.Interface, errLinkDown)
	}

	switch attrs.OperState {
	case netlink.OperUp, netlink.OperUnknown:
		return nil
	default:
		return fmt.Errorf("%s: %w (%s)", c.Interface, errLinkDown, attrs.OperState)
	}
}
