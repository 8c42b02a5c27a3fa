package transfer

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hop.computer/cctransfer/common"
	"hop.computer/cctransfer/congestion/protocol"
)

// ErrBadAck is returned for an acknowledgment that is not an integer in
// 0..numberPackets.
var ErrBadAck = errors.New("invalid acknowledgment")

// ackMonitor reads one acknowledgment per line and publishes the highest one
// seen. It owns the inbound side of the connection.
type ackMonitor struct {
	r       *bufio.Reader
	total   protocol.PacketCount
	acks    *ackState
	metrics *Metrics
	log     *logrus.Entry
}

// run returns nil once the last packet has been acknowledged and an error if
// the stream fails or carries a malformed acknowledgment.
func (m *ackMonitor) run() error {
	for {
		line, err := common.ReadLine(m.r)
		if err != nil {
			return errors.Wrap(err, "reading acknowledgment")
		}
		ack, err := parseAck(line, m.total)
		if err != nil {
			return err
		}
		m.metrics.AcksReceived.Inc()

		if m.acks.publish(ack) {
			m.metrics.LastAck.Set(float64(ack))
			m.log.WithField("ack", ack).Trace("received ack")
		} else {
			m.metrics.StaleAcks.Inc()
			m.log.WithFields(logrus.Fields{
				"ack":     ack,
				"lastAck": m.acks.load(),
			}).Trace("dropped stale ack")
		}

		if protocol.PacketCount(m.acks.load()) >= m.total {
			m.log.Debug("last packet acknowledged")
			return nil
		}
	}
}

func parseAck(line string, total protocol.PacketCount) (protocol.SeqNo, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrBadAck, "%q", line)
	}
	if v < 0 || protocol.PacketCount(v) > total {
		return 0, errors.Wrapf(ErrBadAck, "%d not in 0..%d", v, total)
	}
	return protocol.SeqNo(v), nil
}
