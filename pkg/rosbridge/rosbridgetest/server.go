// Package rosbridgetest provides an in-process rosbridge server for tests.
package rosbridgetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is one decoded message received by the server.
type Frame struct {
	Op    string          `json:"op"`
	ID    string          `json:"id"`
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Msg   json.RawMessage `json:"msg"`
}

// Server records every frame clients send and lets tests drop connections.
type Server struct {
	*httptest.Server

	upgrader websocket.Upgrader

	mu       sync.Mutex
	frames   []Frame
	conns    []*websocket.Conn
	accepted int
	notify   chan struct{}
}

// NewServer starts a rosbridge test server.
func NewServer() *Server {
	s := &Server{notify: make(chan struct{}, 1)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// WSURL returns the ws:// address of the server.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.accepted++
	s.mu.Unlock()
	s.signal()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		s.mu.Lock()
		s.frames = append(s.frames, f)
		s.mu.Unlock()
		s.signal()
	}
}

func (s *Server) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Frames returns a copy of everything received so far.
func (s *Server) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// FramesWithOp filters Frames by op.
func (s *Server) FramesWithOp(op string) []Frame {
	var out []Frame
	for _, f := range s.Frames() {
		if f.Op == op {
			out = append(out, f)
		}
	}
	return out
}

// Accepted returns how many WebSocket connections were upgraded.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// WaitFor polls cond until it holds or timeout passes.
func (s *Server) WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.After(timeout)
	for {
		if cond() {
			return true
		}
		select {
		case <-s.notify:
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			return cond()
		}
	}
}

// SendStatus pushes a rosbridge status op to every connected client.
func (s *Server) SendStatus(level, msg string) {
	payload, _ := json.Marshal(map[string]string{"op": "status", "level": level, "msg": msg})
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.WriteMessage(websocket.TextMessage, payload)
	}
}

// DropConnections closes every client socket without a close handshake,
// simulating a network failure.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.UnderlyingConn().Close()
	}
	s.conns = nil
}
