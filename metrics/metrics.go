// Package metrics wires scheduler activity into Prometheus: a namespaced
// gauge/histogram/counter set registered
// against a caller-supplied prometheus.Registerer, updated from the event
// stream rather than threaded through engine internals; Collector is
// itself an emit.Processor, installed via runner.WithDefaultProcessors.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gilad-rubin/hypergraph-sub004/emit"
)

// Collector implements emit.Processor, translating the event stream into
// Prometheus series. It never affects scheduling: like every processor, a
// panic inside OnEvent is isolated by the Dispatcher.
type Collector struct {
	inflight       prometheus.Gauge
	nodesTotal     *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	cacheHits      prometheus.Counter
	routeDecisions prometheus.Counter

	mu      sync.Mutex
	started map[string]time.Time // "runID:nodeID" -> NodeStart time
}

// NewCollector registers the hypergraph_* series against registry (use
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() for test isolation).
func NewCollector(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Collector{
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hypergraph_inflight_nodes",
			Help: "Current number of nodes executing concurrently.",
		}),
		nodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hypergraph_nodes_total",
			Help: "Total node executions by terminal status.",
		}, []string{"status"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hypergraph_node_duration_ms",
			Help:    "Node execution duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "hypergraph_cache_hits_total",
			Help: "Total cache hits across all cache-eligible nodes.",
		}),
		routeDecisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "hypergraph_route_decisions_total",
			Help: "Total gate decisions made.",
		}),
		started: map[string]time.Time{},
	}
}

func (c *Collector) key(ev emit.Event) string { return ev.RunID + ":" + ev.NodeID }

// OnEvent updates the relevant series for one emitted event.
func (c *Collector) OnEvent(ev emit.Event) {
	switch ev.Kind {
	case emit.KindNodeStart:
		c.mu.Lock()
		c.started[c.key(ev)] = time.Now()
		c.mu.Unlock()
		c.inflight.Inc()

	case emit.KindNodeEnd:
		c.inflight.Dec()
		c.nodesTotal.WithLabelValues("completed").Inc()
		c.observeDuration(ev)
		if cached, _ := ev.Meta["cached"].(bool); cached {
			c.cacheHits.Inc()
		}

	case emit.KindNodeError:
		c.inflight.Dec()
		c.nodesTotal.WithLabelValues("failed").Inc()
		c.observeDuration(ev)

	case emit.KindInterrupt:
		c.inflight.Dec()
		c.nodesTotal.WithLabelValues("paused").Inc()
		c.observeDuration(ev)

	case emit.KindCacheHit:
		c.cacheHits.Inc()

	case emit.KindRouteDecision:
		c.routeDecisions.Inc()
	}
}

func (c *Collector) observeDuration(ev emit.Event) {
	c.mu.Lock()
	start, ok := c.started[c.key(ev)]
	if ok {
		delete(c.started, c.key(ev))
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	c.nodeDuration.WithLabelValues(ev.NodeID).Observe(float64(time.Since(start).Milliseconds()))
}

// Shutdown satisfies emit.Processor; Prometheus series outlive any single
// run, so there is nothing to flush.
func (c *Collector) Shutdown(ctx context.Context) error { return nil }
