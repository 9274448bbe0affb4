package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all registered collectors for the WebSocket server.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	MessagesReceived  *prometheus.CounterVec
	MessagesSent      prometheus.Counter
	SendFailures      prometheus.Counter
	DecodeErrors      prometheus.Counter
}

// New initializes and registers all collectors with the default registry.
func New() (*Metrics, error) {
	m := &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wsserver_active_connections",
			Help: "Number of currently connected WebSocket clients.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsserver_connections_total",
			Help: "Total number of accepted WebSocket connections.",
		}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsserver_messages_received_total",
			Help: "Inbound messages partitioned by message type.",
		}, []string{"type"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsserver_messages_sent_total",
			Help: "Outbound messages successfully written.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsserver_send_failures_total",
			Help: "Outbound messages that failed to marshal or write.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsserver_decode_errors_total",
			Help: "Inbound messages that were not valid JSON objects.",
		}),
	}

	collectors := []prometheus.Collector{
		m.ActiveConnections,
		m.ConnectionsTotal,
		m.MessagesReceived,
		m.MessagesSent,
		m.SendFailures,
		m.DecodeErrors,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RegisterHandlers mounts the Prometheus scrape handler on mux at path.
func RegisterHandlers(mux *http.ServeMux, path string) {
	mux.Handle(path, promhttp.Handler())
}

// ConnectionOpened records an accepted connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
	m.ActiveConnections.Inc()
}

// ConnectionClosed records a finished connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

// MessageReceived records one decoded inbound message.
func (m *Metrics) MessageReceived(msgType string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(msgType).Inc()
}

// MessageSent records one successfully written outbound message.
func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.MessagesSent.Inc()
}

// SendFailure records a failed outbound write or marshal.
func (m *Metrics) SendFailure() {
	if m == nil {
		return
	}
	m.SendFailures.Inc()
}

// DecodeError records an inbound payload that failed envelope decoding.
func (m *Metrics) DecodeError() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}
