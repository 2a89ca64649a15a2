package teleop

import "fmt"

// EventSink receives human-readable status lines for the operator console.
// A nil EventSink is valid and drops everything.
type EventSink func(message string)

// Console lines emitted by the BridgeClient.
const (
	EventConnected     = "CONNECTION: Robot connected successfully"
	EventClosed        = "CONNECTION: Connection to ROS bridge server closed"
	EventDisconnecting = "CONNECTION: Disconnecting from ROS bridge"
	EventDisconnected  = "CONNECTION: Robot disconnected"
)

// EventConnecting is emitted when a connect attempt starts.
func EventConnecting(endpoint string) string {
	return fmt.Sprintf("CONNECTION: Connecting to ROS bridge at %s", endpoint)
}

// EventConnectFailed is emitted once per failed connect attempt.
func EventConnectFailed(err error) string {
	return fmt.Sprintf("CONNECTION: Failed to connect - %v", err)
}

// EventMove echoes a joystick position while connected.
func EventMove(x, y float64) string {
	return fmt.Sprintf("MOVE: X=%.4f, Y=%.4f", x, y)
}
