package telemetry

import "testing"

func TestCollectorImplementsDispatchMetrics(t *testing.T) {
	c := NewCollector()
	c.IncUpdates()
	c.IncRevokes()
	c.IncNoRoute()
	c.IncDataForwarded()
	c.SetRouteCount(3)
}
