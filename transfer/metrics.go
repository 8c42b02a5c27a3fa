package transfer

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cctransfer"

// Metrics are the Prometheus collectors updated by transfers.
type Metrics struct {
	PacketsSent     prometheus.Counter
	Retransmissions prometheus.Counter
	Timeouts        prometheus.Counter
	AcksReceived    prometheus.Counter
	StaleAcks       prometheus.Counter
	Cwnd            prometheus.Gauge
	Ssthresh        prometheus.Gauge
	LastAck         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "packets_sent_total",
			Help:      "Frames written to the peer, including retransmissions.",
		}),
		Retransmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retransmissions_total",
			Help:      "Frames written more than once.",
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "timeouts_total",
			Help:      "Retransmission timeouts.",
		}),
		AcksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "acks_received_total",
			Help:      "Acknowledgment lines read from the peer.",
		}),
		StaleAcks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "acks_stale_total",
			Help:      "Acknowledgments dropped because they did not advance the last ack.",
		}),
		Cwnd: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cwnd_packets",
			Help:      "Current congestion window.",
		}),
		Ssthresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "ssthresh_packets",
			Help:      "Current slow-start threshold.",
		}),
		LastAck: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_ack",
			Help:      "Highest sequence number acknowledged in the current transfer.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering metrics")
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PacketsSent,
		m.Retransmissions,
		m.Timeouts,
		m.AcksReceived,
		m.StaleAcks,
		m.Cwnd,
		m.Ssthresh,
		m.LastAck,
	}
}
