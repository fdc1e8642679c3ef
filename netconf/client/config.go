package client

import (
	"time"

	"github.com/imdario/mergo"
)

// Defines structs describing netconf configuration.

// Config defines properties that configure netconf session behaviour.
type Config struct {
	// Defines the time in seconds that the client will wait to receive a hello message from the server.
	SetupTimeoutSecs int
	// Defines the time the client will wait for the reply to a request, unless the request context
	// carries an earlier deadline.
	ReplyTimeout time.Duration
	// Prevents the client from advertising :base:1.1, so that end-of-message framing is used throughout.
	DisableChunkedCodec bool
	// Bounds the size of a single message received from the server.
	MaxMessageSize int
}

// DefaultConfig holds the values used for any Config field left unset.
var DefaultConfig = &Config{
	SetupTimeoutSecs: 5,
	ReplyTimeout:     30 * time.Second,
	MaxMessageSize:   64 * 1024 * 1024,
}

// resolveConfig delivers a copy of cfg with defaults applied to unspecified values.
func resolveConfig(cfg *Config) *Config {
	resolved := Config{}
	if cfg != nil {
		resolved = *cfg
	}
	_ = mergo.Merge(&resolved, DefaultConfig)
	return &resolved
}

func (c *Config) setupTimeout() time.Duration {
	return time.Duration(c.SetupTimeoutSecs) * time.Second
}
