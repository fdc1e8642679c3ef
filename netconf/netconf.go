// Package netconf is the root of a NETCONF client.
//
// The Network Configuration Protocol (NETCONF)
// provides mechanisms to install, manipulate, and delete the
// configuration of network devices.  It uses an Extensible Markup
// Language (XML)-based data encoding for the configuration data as well
// as the protocol messages.  The NETCONF protocol operations are
// realized as remote procedure calls (RPCs).
//
// The client is layered as follows:
//   - rfc6242 splits the transport byte stream into messages, with end-of-message or chunked framing.
//   - common defines the message model and the templating of requests and replies.
//   - client manages a session over an SSH transport: the hello exchange, correlation of replies to
//     requests, recovery of failed transport layers and notification delivery.
//   - ops offers the base protocol operations over a client session.
//   - testserver is an SSH netconf server for tests.
package netconf
