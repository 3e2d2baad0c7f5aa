// File: client/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"context"
	"errors"
)

// Run drives the loop until the requested rounds are done, the peer goes
// away, ctx is cancelled or Stop is called.
func (c *Client) Run(ctx context.Context) error {
	err := c.loop.Run(ctx)
	c.disp.CloseAll()
	c.closeReactor()
	c.log.Info().Int64("received", c.received.Load()).Msg("client stopped")
	return errors.Join(err, c.closeErr)
}

// Stop ends Run. Safe from any goroutine.
func (c *Client) Stop() {
	c.loop.Stop()
}
