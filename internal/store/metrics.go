package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts statements sent to SQLite and calls rejected before any
// statement was built. One Metrics value can be shared by several stores;
// the "store" label tells them apart.
type Metrics struct {
	Statements *prometheus.CounterVec
	Rejections *prometheus.CounterVec
}

// NewMetrics creates the store collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agora",
			Subsystem: "store",
			Name:      "statements_total",
			Help:      "Statements executed against the store, by operation.",
		}, []string{"store", "op"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agora",
			Subsystem: "store",
			Name:      "rejections_total",
			Help:      "Record operations rejected by schema or input guards.",
		}, []string{"store", "op", "reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.Statements, m.Rejections)
	}
	return m
}
