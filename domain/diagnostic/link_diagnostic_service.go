package diagnostic

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/robocyber/control-station/domain/teleop"
)

// LinkDiagnostics is the connection panel snapshot
type LinkDiagnostics struct {
	Timestamp         time.Time              `json:"timestamp"`
	Online            bool                   `json:"online"`
	State             teleop.ConnectionState `json:"state"`
	Endpoint          string                 `json:"endpoint"`
	ConnectedSince    *time.Time             `json:"connected_since"`
	UptimeSeconds     float64                `json:"uptime_seconds"`
	CommandsPublished uint64                 `json:"commands_published"`
	CommandsDropped   uint64                 `json:"commands_dropped"`
	LastCommandAt     *time.Time             `json:"last_command_at"`
	Topics            []string               `json:"topics"`
}

// LinkSource provides link statistics, normally a *teleop.BridgeClient
type LinkSource interface {
	Stats() teleop.LinkStats
}

// DiagnosticService reports on the robot link
type DiagnosticService struct {
	source LinkSource
	now    func() time.Time
}

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(source LinkSource) *DiagnosticService {
	return &DiagnosticService{
		source: source,
		now:    time.Now,
	}
}

// GetDiagnostics returns the current link diagnostics
func (s *DiagnosticService) GetDiagnostics() LinkDiagnostics {
	stats := s.source.Stats()
	now := s.now()

	d := LinkDiagnostics{
		Timestamp:         now,
		Online:            stats.State == teleop.Connected,
		State:             stats.State,
		Endpoint:          stats.Endpoint,
		CommandsPublished: stats.CommandsPublished,
		CommandsDropped:   stats.CommandsDropped,
		Topics:            stats.Topics,
	}
	if d.Topics == nil {
		d.Topics = []string{}
	}
	if !stats.ConnectedSince.IsZero() {
		since := stats.ConnectedSince
		d.ConnectedSince = &since
		d.UptimeSeconds = now.Sub(since).Seconds()
	}
	if !stats.LastCommandAt.IsZero() {
		last := stats.LastCommandAt
		d.LastCommandAt = &last
	}
	return d
}

// GetDiagnosticsHandler handles API requests for link diagnostics
func (s *DiagnosticService) GetDiagnosticsHandler(c *fiber.Ctx) error {
	return c.JSON(s.GetDiagnostics())
}
