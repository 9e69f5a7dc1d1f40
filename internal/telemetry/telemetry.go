// Package telemetry exposes Prometheus counters for the router's
// update/revoke/data-forwarding activity, served the same way the teacher's
// internal/metrics/serve.go exposes its own metrics: promhttp.Handler on a
// dedicated port.
package telemetry

import (
	"flag"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rrelay/bgpd/pkg/logging"
)

var (
	port = flag.Int("metrics.port", 9179, "port for the Prometheus metrics endpoint")
	path = flag.String("metrics.path", "/metrics", "path for the Prometheus metrics endpoint")
)

// Collector implements dispatch.Metrics.
type Collector struct {
	updates       prometheus.Counter
	revokes       prometheus.Counter
	noRoute       prometheus.Counter
	dataForwarded prometheus.Counter
	routeCount    prometheus.Gauge
}

// NewCollector registers every counter/gauge against the default registry.
func NewCollector() *Collector {
	return &Collector{
		updates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bgpd_updates_total",
			Help: "Number of update messages processed.",
		}),
		revokes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bgpd_revokes_total",
			Help: "Number of revoke messages processed.",
		}),
		noRoute: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bgpd_no_route_total",
			Help: "Number of data packets that produced a no-route reply.",
		}),
		dataForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bgpd_data_forwarded_total",
			Help: "Number of data packets successfully forwarded.",
		}),
		routeCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bgpd_rib_routes",
			Help: "Current number of routes in the RIB.",
		}),
	}
}

func (c *Collector) IncUpdates()         { c.updates.Inc() }
func (c *Collector) IncRevokes()         { c.revokes.Inc() }
func (c *Collector) IncNoRoute()         { c.noRoute.Inc() }
func (c *Collector) IncDataForwarded()   { c.dataForwarded.Inc() }
func (c *Collector) SetRouteCount(n int) { c.routeCount.Set(float64(n)) }

// Serve blocks forever serving the metrics endpoint. Intended to be run in
// its own goroutine, the same way the teacher runs metrics.Serve.
func Serve(logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle(*path, promhttp.Handler())
	logger.Infof("serving metrics on :%d%s", *port, *path)
	if err := http.ListenAndServe(":"+strconv.Itoa(*port), mux); err != nil {
		logger.Errorf("metrics server stopped: %v", err)
	}
}
