package api

import (
	"context"

	"github.com/robocyber/control-station/domain/teleop"
	"github.com/robocyber/control-station/pkg/msgs"
)

// --- Collaborators ---

// BridgeController is the connection surface of the bridge client.
type BridgeController interface {
	Connect(ctx context.Context, endpoint string) error
	Disconnect()
	State() teleop.ConnectionState
	Endpoint() string
}

// Driver turns joystick input into drive commands.
type Driver interface {
	Drive(cmd msgs.Vector2) error
	Stop()
}

// ConsoleLog is the operator console.
type ConsoleLog interface {
	AppendUser(message string)
	Lines() []string
	Subscribe(buffer int) (<-chan string, func())
}

// --- Request / response bodies ---

// ConnectRequest optionally overrides the configured bridge URL.
type ConnectRequest struct {
	URL string `json:"url"`
}

// ConnectionStatus is returned by every connection endpoint.
type ConnectionStatus struct {
	Online   bool                   `json:"online"`
	State    teleop.ConnectionState `json:"state"`
	Endpoint string                 `json:"endpoint"`
}

// ConsoleMessage is an operator-typed console line.
type ConsoleMessage struct {
	Message string `json:"message"`
}

// ConsoleLines is the console scrollback.
type ConsoleLines struct {
	Lines []string `json:"lines"`
}
