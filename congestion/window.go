package congestion

import (
	"fmt"

	"github.com/pkg/errors"

	"hop.computer/cctransfer/congestion/protocol"
)

// State is the phase of the congestion state machine.
type State int

const (
	// SlowStart doubles the window every acknowledged round (cwnd < ssthresh).
	SlowStart State = iota
	// CongestionAvoidance grows the window by one packet per round (cwnd >= ssthresh).
	CongestionAvoidance
	// TimeoutRecovery is entered and left within a single controller iteration
	// when the oldest unacknowledged packet times out.
	TimeoutRecovery
)

func (s State) String() string {
	switch s {
	case SlowStart:
		return "slow-start"
	case CongestionAvoidance:
		return "congestion-avoidance"
	case TimeoutRecovery:
		return "timeout-recovery"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNoPackets is returned when a window is created for an empty transfer.
var ErrNoPackets = errors.New("transfer needs at least one packet")

// Window is the congestion state of one transfer. It holds no clock and does
// no I/O; the transfer loop feeds it the latest acknowledgment.
type Window struct {
	total    protocol.PacketCount
	sent     protocol.SeqNo // next sequence number to transmit
	base     protocol.SeqNo // acknowledged-through marker of the current round
	cwnd     protocol.PacketCount
	ssthresh protocol.PacketCount
}

var _ SendAlgorithm = &Window{}

// NewWindow returns the initial state for a transfer of total packets:
// cwnd=1, ssthresh=total, next packet 1.
func NewWindow(total protocol.PacketCount) (*Window, error) {
	if total < 1 {
		return nil, errors.Wrapf(ErrNoPackets, "got %d", total)
	}
	return &Window{
		total:    total,
		sent:     1,
		base:     0,
		cwnd:     protocol.InitialWindow,
		ssthresh: total,
	}, nil
}

// Total is the number of packets in the transfer.
func (w *Window) Total() protocol.PacketCount { return w.total }

// Cwnd is the congestion window in packets.
func (w *Window) Cwnd() protocol.PacketCount { return w.cwnd }

// Ssthresh is the slow-start threshold in packets.
func (w *Window) Ssthresh() protocol.PacketCount { return w.ssthresh }

// Sent is the next sequence number that will be transmitted.
func (w *Window) Sent() protocol.SeqNo { return w.sent }

// Base is the acknowledged-through marker the window is measured from.
func (w *Window) Base() protocol.SeqNo { return w.base }

// State returns SlowStart or CongestionAvoidance.
func (w *Window) State() State {
	if w.cwnd < w.ssthresh {
		return SlowStart
	}
	return CongestionAvoidance
}

// NextToSend implements SendAlgorithm. Packets the peer already acknowledged
// are skipped.
func (w *Window) NextToSend(lastAck protocol.SeqNo) (protocol.SeqNo, bool) {
	if w.sent <= lastAck {
		w.sent = lastAck + 1
	}
	if protocol.PacketCount(w.sent-w.base) > w.cwnd || protocol.PacketCount(w.sent) > w.total {
		return 0, false
	}
	seq := w.sent
	w.sent++
	return seq, true
}

// acked is the number of packets acknowledged in the current round.
func (w *Window) acked(lastAck protocol.SeqNo) protocol.PacketCount {
	return protocol.PacketCount(lastAck - w.base)
}

// CanTimeout implements SendAlgorithm. A window that has just been fully
// acknowledged never times out.
func (w *Window) CanTimeout(lastAck protocol.SeqNo) bool {
	return protocol.PacketCount(lastAck) < w.total && w.acked(lastAck) < w.cwnd
}

// OnRetransmissionTimeout implements SendAlgorithm.
func (w *Window) OnRetransmissionTimeout(lastAck protocol.SeqNo) {
	w.sent = lastAck + 1
	w.base = lastAck
	w.ssthresh = max(w.cwnd/2, protocol.MinWindow)
	w.cwnd = protocol.MinWindow
}

// OnWindowAcked implements SendAlgorithm.
func (w *Window) OnWindowAcked(lastAck protocol.SeqNo) bool {
	if w.acked(lastAck) < w.cwnd {
		return false
	}
	if w.State() == SlowStart {
		if w.cwnd*2 > w.ssthresh {
			w.cwnd = w.ssthresh
		} else {
			w.cwnd *= 2
		}
		w.base = lastAck
		return true
	}
	// one step per acknowledgment, even when a late ack covers several rounds
	w.base = lastAck
	w.cwnd++
	return true
}

// Done implements SendAlgorithm.
func (w *Window) Done(lastAck protocol.SeqNo) bool {
	return protocol.PacketCount(lastAck) >= w.total
}
