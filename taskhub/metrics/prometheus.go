// Package metrics provides the Prometheus implementation of taskhub.Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/taskhub/taskhub-sdk-go/taskhub"
)

// Prometheus records realtime client activity into Prometheus collectors.
type Prometheus struct {
	framesReceived    *prometheus.CounterVec
	framesSent        *prometheus.CounterVec
	reconnectAttempts prometheus.Counter
	connectionState   prometheus.Gauge
}

// NewPrometheus registers the client collectors with reg and returns the
// recorder. Pass prometheus.DefaultRegisterer for the global registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		framesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_frames_received_total",
				Help: "Frames received over the realtime socket, by frame type.",
			},
			[]string{"type"},
		),
		framesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_frames_sent_total",
				Help: "Frames written to the realtime socket, by frame type.",
			},
			[]string{"type"},
		),
		reconnectAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "taskhub_reconnect_attempts_total",
				Help: "Reconnection attempts scheduled after unexpected closures.",
			},
		),
		connectionState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_connection_state",
				Help: "Current connection state (0 disconnected, 1 connecting, 2 connected, 3 reconnecting).",
			},
		),
	}
}

func (p *Prometheus) FrameReceived(frameType string) {
	p.framesReceived.WithLabelValues(frameType).Inc()
}

func (p *Prometheus) FrameSent(frameType string) {
	p.framesSent.WithLabelValues(frameType).Inc()
}

func (p *Prometheus) ReconnectAttempt() {
	p.reconnectAttempts.Inc()
}

func (p *Prometheus) ConnectionState(state taskhub.ConnectionState) {
	p.connectionState.Set(float64(state))
}
