package incremental

import (
	"os"
	"time"
)

// Option configures a Cache.
type Option func(*Cache)

// WithNowFunc sets the clock used to evaluate expiry times.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithEnvLookup sets the function used to read environment variables recorded as dynamic inputs.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(c *Cache) {
		c.lookupEnv = lookup
	}
}

var lookupEnv = os.LookupEnv

// ExecuteOption configures a single Execute call.
type ExecuteOption func(*executeConfig)

type executeConfig struct {
	force bool
}

// WithForceRecalculation runs the unit of work even when the recorded result is valid.
// The change set is still computed against the previously recorded outputs.
func WithForceRecalculation() ExecuteOption {
	return func(c *executeConfig) {
		c.force = true
	}
}
