package ops

import (
	"context"

	"golang.org/x/crypto/ssh"

	"github.com/netcfg/ncclient/netconf/client"
)

// Defines factory methods for instantiating netconf operation sessions.

// NewSession connects to the target using the ssh configuration, and establishes
// a netconf session with default configuration.
func NewSession(ctx context.Context, sshcfg *ssh.ClientConfig, target string) (s OpSession, err error) {
	return NewSessionWithConfig(ctx, sshcfg, target, client.DefaultConfig)
}

// NewSessionWithConfig connects to the target using the ssh configuration, and establishes
// a netconf session with the client configuration.
func NewSessionWithConfig(ctx context.Context, sshcfg *ssh.ClientConfig, target string, cfg *client.Config) (s OpSession, err error) {
	var cs client.Session
	if cs, err = client.NewRPCSessionWithConfig(ctx, sshcfg, target, cfg); err != nil {
		return
	}
	return Wrap(cs), nil
}

// NewEndpointSession establishes a netconf session with the device described by ep.
func NewEndpointSession(ctx context.Context, ep *client.DeviceEndpoint, hostKeyCallback ssh.HostKeyCallback, cfg *client.Config) (OpSession, error) {
	cs, err := client.NewEndpointSession(ctx, ep, hostKeyCallback, cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(cs), nil
}

// Wrap adds the netconf operations to an existing session.
func Wrap(s client.Session) OpSession {
	return &sImpl{Session: s}
}
