package taskhub

// Metrics receives counters from the realtime client. Implementations must be
// safe for concurrent use. The Prometheus implementation lives in the
// taskhub/metrics package; the default discards everything.
type Metrics interface {
	FrameReceived(frameType string)
	FrameSent(frameType string)
	ReconnectAttempt()
	ConnectionState(state ConnectionState)
}

type nopMetrics struct{}

func (nopMetrics) FrameReceived(string)            {}
func (nopMetrics) FrameSent(string)                {}
func (nopMetrics) ReconnectAttempt()               {}
func (nopMetrics) ConnectionState(ConnectionState) {}
