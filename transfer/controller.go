package transfer

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hop.computer/cctransfer/congestion"
	"hop.computer/cctransfer/congestion/protocol"
	"hop.computer/cctransfer/frame"
)

// timerSlack is added when waiting for a timeout so that the wait ends
// strictly after the deadline.
const timerSlack = time.Millisecond

// controller is the window controller. It owns the outbound side of the
// connection and is the only reader of the window state.
type controller struct {
	w           io.Writer
	packets     *frame.Packetizer
	window      congestion.SendAlgorithm
	acks        *ackState
	timeout     time.Duration
	maxTimeouts int
	metrics     *Metrics
	log         *logrus.Entry

	// sentAt[seq] is the last transmission time of packet seq.
	sentAt []time.Time
	buf    []byte
	stats  Stats
}

func (c *controller) run(ctx context.Context) error {
	total := c.packets.Total()
	c.sentAt = make([]time.Time, total+1)
	c.buf = make([]byte, protocol.FrameSize)
	c.stats.Packets = total
	defer c.recordWindow()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	var progress protocol.SeqNo
	consecutive := 0

	for {
		lastAck := c.acks.load()
		if lastAck < 0 {
			return ErrAborted
		}
		if c.window.Done(lastAck) {
			return nil
		}
		if lastAck > progress {
			progress = lastAck
			consecutive = 0
		}
		changed := false

		for {
			seq, ok := c.window.NextToSend(lastAck)
			if !ok {
				break
			}
			if err := c.send(seq); err != nil {
				return err
			}
			changed = true
		}

		now := time.Now()
		oldest := c.sentAt[lastAck+1]
		canTimeout := c.window.CanTimeout(lastAck) && !oldest.IsZero()
		if canTimeout && now.Sub(oldest) > c.timeout {
			consecutive++
			c.stats.Timeouts++
			c.metrics.Timeouts.Inc()
			if c.maxTimeouts > 0 && consecutive > c.maxTimeouts {
				return errors.Wrapf(ErrPeerUnresponsive, "%d timeouts waiting for packet %d", consecutive-1, lastAck+1)
			}
			c.onTimeout(lastAck)
			changed = true
		}

		if c.window.OnWindowAcked(lastAck) {
			c.logWindow("window acknowledged", lastAck)
			changed = true
		}

		if changed {
			continue
		}

		var timeoutC <-chan time.Time
		if canTimeout {
			timer.Reset(oldest.Add(c.timeout).Sub(now) + timerSlack)
			timeoutC = timer.C
		}
		select {
		case <-c.acks.notify:
		case <-timeoutC:
		case <-ctx.Done():
			if c.acks.load() < 0 {
				return ErrAborted
			}
			return ctx.Err()
		}
		if canTimeout && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

func (c *controller) send(seq protocol.SeqNo) error {
	f, err := c.packets.Frame(seq)
	if err != nil {
		return err
	}
	f.Encode(c.buf)
	if _, err := c.w.Write(c.buf); err != nil {
		return errors.Wrapf(err, "writing packet %d", seq)
	}

	retransmit := !c.sentAt[seq].IsZero()
	c.sentAt[seq] = time.Now()
	c.stats.FramesSent++
	c.metrics.PacketsSent.Inc()
	if retransmit {
		c.stats.Retransmissions++
		c.metrics.Retransmissions.Inc()
		c.log.WithField("seq", seq).Debug("resent packet")
	} else {
		c.log.WithField("seq", seq).Trace("sent packet")
	}
	return nil
}

func (c *controller) onTimeout(lastAck protocol.SeqNo) {
	c.log.WithFields(logrus.Fields{
		"lastAck": lastAck,
		"cwnd":    c.window.Cwnd(),
		"state":   congestion.TimeoutRecovery,
	}).Info("timeout, resending from next unacknowledged packet")
	c.window.OnRetransmissionTimeout(lastAck)
	c.logWindow("window reset", lastAck)
}

func (c *controller) recordWindow() {
	c.stats.FinalCwnd = c.window.Cwnd()
	c.stats.FinalSsthresh = c.window.Ssthresh()
}

func (c *controller) logWindow(msg string, lastAck protocol.SeqNo) {
	c.metrics.Cwnd.Set(float64(c.window.Cwnd()))
	c.metrics.Ssthresh.Set(float64(c.window.Ssthresh()))
	c.log.WithFields(logrus.Fields{
		"lastAck":  lastAck,
		"cwnd":     c.window.Cwnd(),
		"ssthresh": c.window.Ssthresh(),
		"state":    c.window.State(),
	}).Debug(msg)
}
