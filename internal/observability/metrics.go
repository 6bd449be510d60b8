package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultClosed   = "closed"

	ResultDispatched = "dispatched"
	ResultDropped    = "dropped"

	ResultSent = "sent"
)

var (
	registerOnce sync.Once

	peerConnections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sketchnet",
			Subsystem: "peer",
			Name:      "connections_total",
			Help:      "Peer connection attempts by direction and result.",
		},
		[]string{"direction", "result"},
	)
	peerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sketchnet",
			Subsystem: "peer",
			Name:      "active",
			Help:      "Live peer connections.",
		},
	)
	peerMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sketchnet",
			Subsystem: "peer",
			Name:      "messages_total",
			Help:      "Framed peer messages by kind and dispatch result.",
		},
		[]string{"kind", "result"},
	)
	broadcastSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sketchnet",
			Subsystem: "broadcast",
			Name:      "sends_total",
			Help:      "Per-connection broadcast sends by result.",
		},
		[]string{"result"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sketchnet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sketchnet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(peerConnections, peerActive, peerMessages, broadcastSends, httpRequests, httpDuration)
	})
}

// RecordConnection counts one accept/connect outcome and tracks the live gauge.
func RecordConnection(direction, result string) {
	RegisterMetrics()
	peerConnections.WithLabelValues(direction, result).Inc()
	switch result {
	case ResultAccepted:
		peerActive.Inc()
	case ResultClosed:
		peerActive.Dec()
	}
}

func RecordMessage(kind, result string) {
	RegisterMetrics()
	peerMessages.WithLabelValues(kind, result).Inc()
}

func RecordBroadcastSend(ok bool) {
	RegisterMetrics()
	result := ResultSent
	if !ok {
		result = ResultFailed
	}
	broadcastSends.WithLabelValues(result).Inc()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
