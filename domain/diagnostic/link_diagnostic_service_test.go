package diagnostic

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/robocyber/control-station/domain/teleop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource teleop.LinkStats

func (s staticSource) Stats() teleop.LinkStats { return teleop.LinkStats(s) }

func TestGetDiagnosticsOffline(t *testing.T) {
	svc := NewDiagnosticService(staticSource{State: teleop.Disconnected})
	d := svc.GetDiagnostics()

	assert.False(t, d.Online)
	assert.Equal(t, teleop.Disconnected, d.State)
	assert.Nil(t, d.ConnectedSince)
	assert.Nil(t, d.LastCommandAt)
	assert.Zero(t, d.UptimeSeconds)
	assert.Equal(t, []string{}, d.Topics)
}

func TestGetDiagnosticsOnline(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	since := now.Add(-90 * time.Second)
	last := now.Add(-time.Second)

	svc := NewDiagnosticService(staticSource{
		State:             teleop.Connected,
		Endpoint:          "ws://robot:9090",
		ConnectedSince:    since,
		CommandsPublished: 42,
		CommandsDropped:   2,
		LastCommandAt:     last,
		Topics:            []string{"/cmd_vel"},
	})
	svc.now = func() time.Time { return now }

	d := svc.GetDiagnostics()
	assert.True(t, d.Online)
	assert.Equal(t, "ws://robot:9090", d.Endpoint)
	require.NotNil(t, d.ConnectedSince)
	assert.Equal(t, since, *d.ConnectedSince)
	assert.Equal(t, 90.0, d.UptimeSeconds)
	assert.EqualValues(t, 42, d.CommandsPublished)
	assert.EqualValues(t, 2, d.CommandsDropped)
	require.NotNil(t, d.LastCommandAt)
	assert.Equal(t, last, *d.LastCommandAt)
}

func TestGetDiagnosticsHandler(t *testing.T) {
	svc := NewDiagnosticService(staticSource{State: teleop.Connecting, Endpoint: "ws://robot:9090"})
	app := fiber.New()
	app.Get("/diagnostics", svc.GetDiagnosticsHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/diagnostics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, false, decoded["online"])
	assert.Equal(t, "connecting", decoded["state"])
	assert.Equal(t, "ws://robot:9090", decoded["endpoint"])
	assert.Nil(t, decoded["connected_since"])
	assert.Contains(t, decoded, "commands_published")
	assert.Contains(t, decoded, "commands_dropped")
	assert.Contains(t, decoded, "last_command_at")
}
