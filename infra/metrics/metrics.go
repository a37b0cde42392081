// Package metrics exposes stack traffic and reclamation state to
// Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lifo"

// Snapshot is the reclamation state sampled on every scrape.
type Snapshot struct {
	Depth        int64
	Epoch        uint64
	Participants int
	Pending      int
	Retired      uint64
	Reclaimed    uint64
	Dropped      uint64
}

// Source samples the current state. It is called once per scrape.
type Source func() Snapshot

type Metrics struct {
	Pushes    prometheus.Counter
	Pops      prometheus.Counter
	EmptyPops prometheus.Counter
}

// New registers the traffic counters and a collector sampling src on reg.
func New(reg prometheus.Registerer, src Source) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		Pushes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_total",
			Help:      "Values pushed onto the stack.",
		}),
		Pops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pop_total",
			Help:      "Values popped from the stack.",
		}),
		EmptyPops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pop_empty_total",
			Help:      "Pops that found the stack empty.",
		}),
	}
	if src != nil {
		reg.MustRegister(newStateCollector(src))
	}
	return m
}

type stateCollector struct {
	src          Source
	depth        *prometheus.Desc
	epoch        *prometheus.Desc
	participants *prometheus.Desc
	pending      *prometheus.Desc
	retired      *prometheus.Desc
	reclaimed    *prometheus.Desc
	dropped      *prometheus.Desc
}

func newStateCollector(src Source) *stateCollector {
	d := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &stateCollector{
		src:          src,
		depth:        d("depth", "Values currently on the stack."),
		epoch:        d("epoch", "Current global reclamation epoch."),
		participants: d("participants", "Registered reclamation participant records."),
		pending:      d("retired_pending", "Retired nodes waiting for their grace period."),
		retired:      d("retired_total", "Nodes retired by successful pops."),
		reclaimed:    d("reclaimed_total", "Retired nodes returned to the node pool."),
		dropped:      d("dropped_total", "Retired nodes left to the garbage collector because a retire bag was full."),
	}
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
	ch <- c.epoch
	ch <- c.participants
	ch <- c.pending
	ch <- c.retired
	ch <- c.reclaimed
	ch <- c.dropped
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src()
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(s.Depth))
	ch <- prometheus.MustNewConstMetric(c.epoch, prometheus.GaugeValue, float64(s.Epoch))
	ch <- prometheus.MustNewConstMetric(c.participants, prometheus.GaugeValue, float64(s.Participants))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending))
	ch <- prometheus.MustNewConstMetric(c.retired, prometheus.CounterValue, float64(s.Retired))
	ch <- prometheus.MustNewConstMetric(c.reclaimed, prometheus.CounterValue, float64(s.Reclaimed))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
}
