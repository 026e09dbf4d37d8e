package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the logger's counters. Each instance owns its registry so
// several loggers (and tests) never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	RowsWritten       prometheus.Counter
	BackpressureWaits prometheus.Counter
	HeaderRewrites    prometheus.Counter
	StreamsOpened     prometheus.Counter
	StreamRenames     prometheus.Counter
	IdleCloses        prometheus.Counter
	Snapshots         prometheus.Counter
	EventsRejected    *prometheus.CounterVec
}

// NewMetrics registers every counter on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RowsWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "gaitlog_rows_written_total",
			Help: "Sample rows appended to streaming CSVs.",
		}),
		BackpressureWaits: f.NewCounter(prometheus.CounterOpts{
			Name: "gaitlog_backpressure_waits_total",
			Help: "Rows queued because the sink reported backpressure.",
		}),
		HeaderRewrites: f.NewCounter(prometheus.CounterOpts{
			Name: "gaitlog_header_rewrites_total",
			Help: "Mid-stream headers written after a configuration change.",
		}),
		StreamsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "gaitlog_streams_opened_total",
			Help: "Streaming CSVs opened.",
		}),
		StreamRenames: f.NewCounter(prometheus.CounterOpts{
			Name: "gaitlog_stream_renames_total",
			Help: "Open streams renamed after a session identity change.",
		}),
		IdleCloses: f.NewCounter(prometheus.CounterOpts{
			Name: "gaitlog_idle_closes_total",
			Help: "Streams closed by the idle timer.",
		}),
		Snapshots: f.NewCounter(prometheus.CounterOpts{
			Name: "gaitlog_snapshots_written_total",
			Help: "Snapshot CSVs written by save.",
		}),
		EventsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gaitlog_events_rejected_total",
			Help: "Inbound events that failed validation or preconditions.",
		}, []string{"event", "kind"}),
	}
}
