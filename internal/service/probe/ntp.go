package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// defaultNTPQueryTimeout bounds a query when ctx carries no deadline.
const defaultNTPQueryTimeout = 2 * time.Second

var errClockOffset = errors.New("clock offset above threshold")

// NTP is ready when the server at Address answers with a valid response and
// the local clock is within MaxOffset of it. Pointed at a GPS-disciplined
// time daemon it confirms the receiver has a fix.
type NTP struct {
	Address   string
	MaxOffset time.Duration

	// query is replaced in tests.
	query func(address string, opts ntp.QueryOptions) (*ntp.Response, error)
}

// Check sends one NTP query.
func (c *NTP) Check(ctx context.Context) error {
	timeout := defaultNTPQueryTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if timeout <= 0 {
		return ctx.Err()
	}

	query := c.query
	if query == nil {
		query = ntp.QueryWithOptions
	}

	resp, err := query(c.Address, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return fmt.Errorf("ntp query %s: %w", c.Address, err)
	}

	if err := resp.Validate(); err != nil {
		return fmt.Errorf("ntp response: %w", err)
	}

	if c.MaxOffset > 0 && resp.ClockOffset.Abs() > c.MaxOffset {
		return fmt.Errorf("%w: %s", errClockOffset, resp.ClockOffset)
	}

	return nil
}
