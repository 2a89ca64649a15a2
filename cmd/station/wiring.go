package main

import (
	"github.com/robocyber/control-station/domain/teleop"
	"github.com/robocyber/control-station/pkg/config"
	customlog "github.com/robocyber/control-station/pkg/log"
	"github.com/robocyber/control-station/pkg/rosbridge"
)

// newBridgeClient builds a BridgeClient from the bridge settings.
func newBridgeClient(cfg *config.BootstrapConfig, logger customlog.Logger, sink teleop.EventSink, metrics teleop.Metrics) *teleop.BridgeClient {
	bridgeLogger := logger.WithField("component", "bridge")
	dialer := rosbridge.NewWebSocketDialer(
		rosbridge.WithLogger(bridgeLogger),
		rosbridge.WithHandshakeTimeout(cfg.Bridge.ConnectTimeout()),
		rosbridge.WithPingInterval(cfg.Bridge.PingInterval()),
		rosbridge.WithWriteTimeout(cfg.Bridge.WriteTimeout()),
		rosbridge.WithSendBufferSize(cfg.Bridge.SendBufferSize),
	)
	return teleop.NewBridgeClient(
		teleop.WithDialer(dialer),
		teleop.WithLogger(bridgeLogger),
		teleop.WithEventSink(sink),
		teleop.WithMetrics(metrics),
		teleop.WithCmdVelTopic(cfg.Bridge.CmdVelTopic),
		teleop.WithConnectTimeout(cfg.Bridge.ConnectTimeout()),
	)
}
