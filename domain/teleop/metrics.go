package teleop

// Metrics is an interface that allows for plugging in custom metrics collectors.
type Metrics interface {
	IncConnections()
	IncDisconnects()
	IncConnectFailures()
	IncCommandsPublished()
	IncCommandsDropped()
	SetConnectionStatus(status float64)
}

type nopMetrics struct{}

func (nopMetrics) IncConnections() {}
func (nopMetrics) IncDisconnects() {}
func (nopMetrics) IncConnectFailures() {}
func (nopMetrics) IncCommandsPublished() {}
func (nopMetrics) IncCommandsDropped() {}
func (nopMetrics) SetConnectionStatus(float64) {}
