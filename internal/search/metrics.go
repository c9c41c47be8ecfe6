package search

import "github.com/prometheus/client_golang/prometheus"

// Metrics describes the sync queue. A nil *Metrics records nothing.
type Metrics struct {
	queueLength prometheus.Gauge
	backendUp   prometheus.Gauge
	processed   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	requeued    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_search_sync_queue_length",
			Help: "Entries waiting to be applied to the search index.",
		}),
		backendUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_search_backend_up",
			Help: "1 when the last liveness probe of the search backend succeeded.",
		}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_search_sync_processed_total",
			Help: "Entries applied to the search index by operation.",
		}, []string{"op"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_search_sync_dropped_total",
			Help: "Entries dropped because they can never be applied, by operation.",
		}, []string{"op"}),
		requeued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_search_sync_requeued_total",
			Help: "Entries pushed back to the head of the queue after a backend failure.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.queueLength, m.backendUp, m.processed, m.dropped, m.requeued)
	}
	return m
}

func (m *Metrics) setQueueLength(n int) {
	if m != nil {
		m.queueLength.Set(float64(n))
	}
}

func (m *Metrics) setBackendUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.backendUp.Set(1)
	} else {
		m.backendUp.Set(0)
	}
}

func (m *Metrics) incProcessed(op string) {
	if m != nil {
		m.processed.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) incDropped(op string) {
	if m != nil {
		m.dropped.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) incRequeued() {
	if m != nil {
		m.requeued.Inc()
	}
}
