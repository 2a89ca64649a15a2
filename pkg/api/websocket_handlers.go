package api

import (
	"encoding/json"
	"errors"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	customlog "github.com/robocyber/control-station/pkg/log"
	"github.com/robocyber/control-station/pkg/msgs"
)

const consoleWriteTimeout = 5 * time.Second

// ControlWebSocketHandler reads joystick positions ({"x":..,"y":..}) and drives the robot.
// The robot is stopped when the socket closes.
func ControlWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, driver Driver) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	defer func() {
		driver.Stop()
		logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
	}()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			logClose(logger, "Control", err)
			return
		}
		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		var cmd msgs.Vector2
		if err := json.Unmarshal(msg, &cmd); err != nil {
			logger.Warnf("Failed to unmarshal joystick command from WS: %v. Message: %s", err, string(msg))
			continue
		}
		if err := driver.Drive(cmd); err != nil {
			logger.Warnf("Rejected joystick command: %v", err)
		}
	}
}

// ConsoleWebSocketHandler sends the console scrollback, then every new line, as text frames.
func ConsoleWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, console ConsoleLog) {
	logger.Infof("Console WebSocket connected: %s", conn.RemoteAddr())
	defer logger.Infof("Console WebSocket disconnected: %s", conn.RemoteAddr())

	lines, cancel := console.Subscribe(0)
	defer cancel()

	for _, line := range console.Lines() {
		if err := writeLine(conn, line); err != nil {
			return
		}
	}

	// The client never sends anything meaningful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logClose(logger, "Console", err)
				return
			}
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := writeLine(conn, line); err != nil {
				logger.Debugf("Console WS write failed: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}

func writeLine(conn *websocket.Conn, line string) error {
	conn.SetWriteDeadline(time.Now().Add(consoleWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func logClose(logger customlog.Logger, name string, err error) {
	switch {
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure):
		logger.Errorf("%s WS read error: %v", name, err)
	case errors.Is(err, websocket.ErrCloseSent), errors.Is(err, syscall.EPIPE), errors.Is(err, syscall.ECONNRESET):
		logger.Infof("%s WS connection closed normally.", name)
	default:
		logger.Infof("%s WS connection closed: %v", name, err)
	}
}
