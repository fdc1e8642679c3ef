package client

import (
	"context"

	"golang.org/x/crypto/ssh"
)

// Defines factory methods for instantiating netconf rpc sessions.

// NewRPCSession connects to the  target using the ssh configuration, and establishes
// a netconf session with default configuration.
func NewRPCSession(ctx context.Context, sshcfg *ssh.ClientConfig, target string) (s Session, err error) {
	return NewRPCSessionWithConfig(ctx, sshcfg, target, DefaultConfig)
}

// NewRPCSessionWithConfig connects to the  target using the ssh configuration, and establishes
// a netconf session with the client configuration.
func NewRPCSessionWithConfig(ctx context.Context, sshcfg *ssh.ClientConfig, target string, cfg *Config) (s Session, err error) {
	return newRPCSession(ctx, sshcfg, target, resolveConfig(cfg))
}

// NewEndpointSession connects to a device endpoint and establishes a netconf session. The endpoint
// connect and idle timeouts apply to the transport, and its reply timeout, when set, overrides the
// one in cfg.
func NewEndpointSession(ctx context.Context, ep *DeviceEndpoint, hostKeyCallback ssh.HostKeyCallback, cfg *Config) (Session, error) {
	resolved := resolveConfig(cfg)
	if ep.ReplyTimeout > 0 {
		resolved.ReplyTimeout = ep.ReplyTimeout
	}
	return newRPCSession(ctx, ep.ClientConfig(hostKeyCallback), ep.Target(), resolved,
		WithConnectTimeout(ep.ConnectTimeout), WithIdleTimeout(ep.IdleTimeout))
}

func newRPCSession(ctx context.Context, sshcfg *ssh.ClientConfig, target string, cfg *Config, opts ...TransportOption) (s Session, err error) {
	var t Transport
	if t, err = createTransport(ctx, sshcfg, target, opts...); err != nil {
		return nil, newError(KindConnect, target, "", err)
	}

	if s, err = NewSession(ctx, t, cfg); err != nil {
		_ = t.Close()
	}
	return
}

func createTransport(ctx context.Context, clientConfig *ssh.ClientConfig, target string, opts ...TransportOption) (t Transport, err error) {
	return NewSSHTransport(ctx, clientConfig, target, "netconf", opts...)
}
