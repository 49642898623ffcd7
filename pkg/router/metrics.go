package router

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sinksRouted counts sinks newly routed by router kind.
	sinksRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otr_router_sinks_routed_total",
		Help: "Sinks routed by router kind",
	}, []string{"router"})

	// sourcesCreated counts constant sources turned on by the static router.
	sourcesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otr_router_sources_created_total",
		Help: "Constant sources created by net type",
	}, []string{"net_type"})

	// pipsCommitted counts PIPs added to nets.
	pipsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otr_router_pips_committed_total",
		Help: "PIPs committed by router kind",
	}, []string{"router"})

	// routeFailures counts failed routing calls by error kind.
	routeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otr_router_failures_total",
		Help: "Routing failures by router kind and error kind",
	}, []string{"router", "kind"})

	// routeDuration tracks one routing call.
	routeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "otr_router_duration_seconds",
		Help:    "Routing call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10), // 0.5ms to ~2min
	}, []string{"router"})
)

const (
	routerStatic = "static"
	routerClock  = "clock"
)

func recordFailure(router string, err error) {
	kind := "other"
	switch {
	case errors.Is(err, ErrMappingNotFound):
		kind = "mapping_not_found"
	case errors.Is(err, ErrUnreachableSink):
		kind = "unreachable_sink"
	case errors.Is(err, ErrIllegalRouteThru):
		kind = "illegal_route_thru"
	}
	routeFailures.WithLabelValues(router, kind).Inc()
}
