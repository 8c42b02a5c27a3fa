// Package congestion decides when the sender may transmit and how the
// congestion window reacts to acknowledgments and retransmission timeouts.
package congestion

import (
	"hop.computer/cctransfer/congestion/protocol"
)

// A SendAlgorithm performs congestion control for one transfer. lastAck is
// the highest cumulative acknowledgment observed so far.
type SendAlgorithm interface {
	// NextToSend returns the next sequence number to transmit and advances the
	// send pointer, or false when the window does not allow another packet.
	NextToSend(lastAck protocol.SeqNo) (protocol.SeqNo, bool)
	// CanTimeout reports whether a retransmission timeout may fire for the
	// oldest unacknowledged packet.
	CanTimeout(lastAck protocol.SeqNo) bool
	// OnRetransmissionTimeout shrinks the window and rewinds the send pointer
	// to lastAck+1.
	OnRetransmissionTimeout(lastAck protocol.SeqNo)
	// OnWindowAcked grows the window once if a full window has been
	// acknowledged and reports whether it did.
	OnWindowAcked(lastAck protocol.SeqNo) bool
	// Done reports whether every packet has been acknowledged.
	Done(lastAck protocol.SeqNo) bool

	Cwnd() protocol.PacketCount
	Ssthresh() protocol.PacketCount
	State() State
}
