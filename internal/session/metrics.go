package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts session lifecycle events.
type Metrics struct {
	Created   prometheus.Counter
	Destroyed prometheus.Counter
	Swept     prometheus.Counter
}

// NewMetrics creates the session collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agora",
			Subsystem: "session",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		Created:   counter("created_total", "Sessions created."),
		Destroyed: counter("destroyed_total", "Sessions removed by Destroy."),
		Swept:     counter("swept_total", "Expired sessions removed by Sweep."),
	}
	if reg != nil {
		reg.MustRegister(m.Created, m.Destroyed, m.Swept)
	}
	return m
}
