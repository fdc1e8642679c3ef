package client

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/netcfg/ncclient/netconf/common"
	"github.com/netcfg/ncclient/netconf/rfc6242"
)

// ZapLoggingHooks delivers a set of hooks that report errors, connection and session lifecycle events
// and request completion as structured log entries.
func ZapLoggingHooks(logger *zap.Logger) *ClientTrace {
	log := logger.Named("netconf")
	return &ClientTrace{
		SessionCreated: func(target, instance string) {
			log.Info("session created", zap.String("target", target), zap.String("instance", instance))
		},
		ConnectDone: func(target string, err error, d time.Duration) {
			log.Info("connect done", zap.String("target", target), zap.Error(err), zap.Duration("took", d))
		},
		DialDone: func(clientConfig *ssh.ClientConfig, target string, err error, d time.Duration) {
			log.Debug("dial done", zap.String("target", target), zap.String("user", sshUser(clientConfig)),
				zap.Error(err), zap.Duration("took", d))
		},
		HelloDone: func(msg *common.HelloMessage) {
			log.Debug("hello done", zap.String("session-id", msg.SessionID), zap.Strings("capabilities", msg.Capabilities))
		},
		ConnectionClosed: func(target string, err error) {
			log.Info("connection closed", zap.String("target", target), zap.Error(err))
		},
		Error: func(context, target string, err error) {
			log.Error(context, zap.String("target", target), zap.Error(err))
		},
		NotificationDropped: func(n *common.Notification) {
			log.Warn("notification dropped", zap.String("event", n.XMLName.Local))
		},
		ExecuteDone: func(req common.Request, async bool, reply string, err error, d time.Duration) {
			log.Debug("execute done", zap.Bool("async", async), zap.Error(err), zap.Duration("took", d))
		},
		StreamEvent: func(target string, event rfc6242.EventType, err error) {
			log.Info("stream ended", zap.String("target", target), zap.Stringer("event", event), zap.Error(err))
		},
		ReplyDropped: func(target, messageID string) {
			log.Warn("reply dropped", zap.String("target", target), zap.String("message-id", messageID))
		},
		ReconnectDone: func(target string, layer Layer, err error, d time.Duration) {
			log.Info("reconnect done", zap.String("target", target), zap.Stringer("layer", layer),
				zap.Error(err), zap.Duration("took", d))
		},
		StateChanged: func(target string, from, to State) {
			log.Debug("state changed", zap.String("target", target), zap.Stringer("from", from), zap.Stringer("to", to))
		},
	}
}
