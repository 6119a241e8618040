// Package metrics provides the Prometheus collectors shared by the relay components.
//
// Every component accepts an optional *Metrics. A nil value is a valid no-op recorder,
// so metrics can be wired in at the composition root only:
//
//	m := metrics.New("rtss")
//	pub := fanout.New[int, Payload](fanout.WithMetrics(m))
//	http.Handle("/metrics", m.Handler())
//
// Collectors live on a dedicated registry rather than the global default one, which
// keeps tests free of duplicate-registration panics.
package metrics
