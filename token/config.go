package token

import (
	"fmt"
	"time"
)

// DefaultTimeout bounds a single RPC round trip.
const DefaultTimeout = 30 * time.Second

// RPCConfig holds the connection parameters for the token service.
type RPCConfig struct {
	URL      string        `json:"url"`
	User     string        `json:"user"`
	Password string        `json:"password"`
	Timeout  time.Duration `json:"timeout"`
}

// Validate checks that the endpoint is usable.
func (c *RPCConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("token: rpc url is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("token: negative rpc timeout %s", c.Timeout)
	}
	return nil
}
