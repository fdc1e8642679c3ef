package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netcfg/ncclient/netconf/common"
	"github.com/netcfg/ncclient/netconf/rfc6242"
)

// Metrics holds the collectors updated by the hooks delivered by NewMetricHooks.
type Metrics struct {
	Executions       *prometheus.CounterVec
	ExecuteDuration  *prometheus.HistogramVec
	Connects         *prometheus.CounterVec
	ConnectDuration  prometheus.Histogram
	Reconnects       *prometheus.CounterVec
	StreamEvents     *prometheus.CounterVec
	Errors           prometheus.Counter
	RepliesDropped   prometheus.Counter
	Notifications    *prometheus.CounterVec
	BytesRead        prometheus.Counter
	BytesWritten     prometheus.Counter
	OpenSessionGauge prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "executions_total",
			Help:      "RPC executions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		ExecuteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "netconf",
			Name:      "execute_duration_seconds",
			Help:      "Time taken to execute an RPC.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		Connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "connects_total",
			Help:      "Transport connection attempts by outcome.",
		}, []string{"outcome"}),
		ConnectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netconf",
			Name:      "connect_duration_seconds",
			Help:      "Time taken to establish a transport connection.",
			Buckets:   prometheus.DefBuckets,
		}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "reconnects_total",
			Help:      "Session recoveries by transport layer and outcome.",
		}, []string{"layer", "outcome"}),
		StreamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "stream_events_total",
			Help:      "Terminal stream events by type.",
		}, []string{"event"}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "errors_total",
			Help:      "Error conditions reported by the client.",
		}),
		RepliesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "replies_dropped_total",
			Help:      "Replies received for message ids that were not pending.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "notifications_total",
			Help:      "Notifications by disposition.",
		}, []string{"disposition"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "read_bytes_total",
			Help:      "Bytes read from transports.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netconf",
			Name:      "written_bytes_total",
			Help:      "Bytes written to transports.",
		}),
		OpenSessionGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netconf",
			Name:      "open_sessions",
			Help:      "Sessions currently in the open state.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Executions, m.ExecuteDuration, m.Connects, m.ConnectDuration, m.Reconnects, m.StreamEvents,
		m.Errors, m.RepliesDropped, m.Notifications, m.BytesRead, m.BytesWritten, m.OpenSessionGauge,
	}
}

// NewMetricHooks registers the client collectors with reg and delivers a trace that updates them.
func NewMetricHooks(reg prometheus.Registerer) (*ClientTrace, *Metrics, error) {
	m := newMetrics()
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, nil, err
		}
	}
	return m.hooks(), m, nil
}

func (m *Metrics) hooks() *ClientTrace {
	return &ClientTrace{
		ConnectDone: func(target string, err error, d time.Duration) {
			m.Connects.WithLabelValues(outcome(err)).Inc()
			m.ConnectDuration.Observe(d.Seconds())
		},
		ReadDone: func(p []byte, c int, err error, d time.Duration) {
			m.BytesRead.Add(float64(c))
		},
		WriteDone: func(p []byte, c int, err error, d time.Duration) {
			m.BytesWritten.Add(float64(c))
		},
		Error: func(context, target string, err error) {
			m.Errors.Inc()
		},
		NotificationReceived: func(n *common.Notification) {
			m.Notifications.WithLabelValues("received").Inc()
		},
		NotificationDropped: func(n *common.Notification) {
			m.Notifications.WithLabelValues("dropped").Inc()
		},
		ExecuteDone: func(req common.Request, async bool, reply string, err error, d time.Duration) {
			mode := "sync"
			if async {
				mode = "async"
			}
			m.Executions.WithLabelValues(mode, outcome(err)).Inc()
			m.ExecuteDuration.WithLabelValues(mode).Observe(d.Seconds())
		},
		StreamEvent: func(target string, event rfc6242.EventType, err error) {
			m.StreamEvents.WithLabelValues(event.String()).Inc()
		},
		ReplyDropped: func(target, messageID string) {
			m.RepliesDropped.Inc()
		},
		ReconnectDone: func(target string, layer Layer, err error, d time.Duration) {
			m.Reconnects.WithLabelValues(layer.String(), outcome(err)).Inc()
		},
		StateChanged: func(target string, from, to State) {
			if to == Open {
				m.OpenSessionGauge.Inc()
			} else if from == Open {
				m.OpenSessionGauge.Dec()
			}
		},
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
