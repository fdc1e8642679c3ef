package client

import (
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the IANA assigned port for NETCONF over SSH.
const DefaultPort = 830

// DeviceEndpoint describes how to reach a device.
type DeviceEndpoint struct {
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// ConnectTimeout bounds establishing the transport.
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	// ReplyTimeout bounds the wait for each reply; zero uses the session configuration.
	ReplyTimeout time.Duration `yaml:"replyTimeout"`
	// IdleTimeout closes the transport after a period with no traffic; zero disables it.
	IdleTimeout time.Duration `yaml:"idleTimeout"`
}

// Target delivers the host:port address of the endpoint.
func (ep *DeviceEndpoint) Target() string {
	port := ep.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(ep.Address, strconv.Itoa(port))
}

// ClientConfig delivers an ssh client configuration using password authentication with the endpoint
// credentials. The host key is verified by hostKeyCallback.
func (ep *DeviceEndpoint) ClientConfig(hostKeyCallback ssh.HostKeyCallback) *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User:            ep.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(ep.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         ep.ConnectTimeout,
	}
}

type endpointFile struct {
	Devices []*DeviceEndpoint `yaml:"devices"`
}

// LoadEndpoints reads device endpoints from a YAML document of the form
//
//	devices:
//	  - name: pe1
//	    address: 10.0.0.1
//	    port: 830
//	    username: admin
//	    password: secret
//	    connectTimeout: 10s
//	    replyTimeout: 30s
//	    idleTimeout: 5m
func LoadEndpoints(r io.Reader) ([]*DeviceEndpoint, error) {
	var f endpointFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to decode endpoints")
	}
	for i, ep := range f.Devices {
		if ep.Address == "" {
			return nil, errors.Errorf("device %d (%s) has no address", i, ep.Name)
		}
	}
	return f.Devices, nil
}

// LoadEndpointsFile reads device endpoints from the named YAML file.
func LoadEndpointsFile(name string) ([]*DeviceEndpoint, error) {
	f, err := os.Open(name) // nolint: gosec
	if err != nil {
		return nil, errors.Wrap(err, "failed to open endpoints file")
	}
	defer f.Close()
	return LoadEndpoints(f)
}
