package congestion

import (
	"errors"
	"testing"

	"gotest.tools/assert"

	"hop.computer/cctransfer/congestion/protocol"
)

// drain sends everything the window allows and returns the sequence numbers.
func drain(w *Window, lastAck protocol.SeqNo) []protocol.SeqNo {
	var seqs []protocol.SeqNo
	for {
		seq, ok := w.NextToSend(lastAck)
		if !ok {
			return seqs
		}
		seqs = append(seqs, seq)
	}
}

func TestNewWindow(t *testing.T) {
	w, err := NewWindow(7)
	assert.NilError(t, err)
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(1))
	assert.Equal(t, w.Ssthresh(), protocol.PacketCount(7))
	assert.Equal(t, w.Sent(), protocol.SeqNo(1))
	assert.Equal(t, w.Base(), protocol.SeqNo(0))
	assert.Equal(t, w.State(), SlowStart)

	_, err = NewWindow(0)
	assert.Assert(t, errors.Is(err, ErrNoPackets))
}

func TestThreePacketTransfer(t *testing.T) {
	w, err := NewWindow(3)
	assert.NilError(t, err)

	assert.DeepEqual(t, drain(w, 0), []protocol.SeqNo{1})
	assert.Assert(t, !w.OnWindowAcked(0))

	// ack 1 completes the first round: 1 -> 2
	assert.Assert(t, w.OnWindowAcked(1))
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(2))
	assert.Equal(t, w.Base(), protocol.SeqNo(1))
	assert.DeepEqual(t, drain(w, 1), []protocol.SeqNo{2, 3})
	assert.DeepEqual(t, drain(w, 1), []protocol.SeqNo(nil))

	assert.Assert(t, !w.Done(2))
	assert.Assert(t, w.Done(3))
}

func TestSlowStartDoublingClampsOnce(t *testing.T) {
	w, err := NewWindow(1000)
	assert.NilError(t, err)

	var lastAck protocol.SeqNo
	round := func() protocol.PacketCount {
		drain(w, lastAck)
		lastAck = w.Sent() - 1
		assert.Assert(t, w.OnWindowAcked(lastAck))
		return w.Cwnd()
	}
	rounds := func(n int) []protocol.PacketCount {
		var cwnds []protocol.PacketCount
		for i := 0; i < n; i++ {
			cwnds = append(cwnds, round())
		}
		return cwnds
	}

	assert.DeepEqual(t, rounds(4), []protocol.PacketCount{2, 4, 8, 16})

	drain(w, lastAck)
	w.OnRetransmissionTimeout(lastAck)
	assert.Equal(t, w.Ssthresh(), protocol.PacketCount(8))
	assert.DeepEqual(t, rounds(6), []protocol.PacketCount{2, 4, 8, 9, 10, 11})

	// ssthresh=5 is not reachable by doubling, so cwnd clamps to it
	drain(w, lastAck)
	w.OnRetransmissionTimeout(lastAck)
	assert.Equal(t, w.Ssthresh(), protocol.PacketCount(5))
	assert.DeepEqual(t, rounds(5), []protocol.PacketCount{2, 4, 5, 6, 7})
}

func TestCongestionAvoidanceGrowth(t *testing.T) {
	w, err := NewWindow(1)
	assert.NilError(t, err)
	assert.Equal(t, w.State(), CongestionAvoidance)

	assert.DeepEqual(t, drain(w, 0), []protocol.SeqNo{1})
	assert.Assert(t, w.OnWindowAcked(1))
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(2))
	assert.Equal(t, w.Base(), protocol.SeqNo(1))
	assert.Assert(t, w.Done(1))
}

func TestLateAckGrowsOnce(t *testing.T) {
	w, err := NewWindow(50)
	assert.NilError(t, err)

	// 1 -> 2 -> 4, then a timeout with lastAck=3 leaves ssthresh=2
	drain(w, 0)
	assert.Assert(t, w.OnWindowAcked(1))
	drain(w, 1)
	assert.Assert(t, w.OnWindowAcked(3))
	drain(w, 3)
	w.OnRetransmissionTimeout(3)
	assert.Equal(t, w.Ssthresh(), protocol.PacketCount(2))

	assert.DeepEqual(t, drain(w, 3), []protocol.SeqNo{4})
	assert.Assert(t, w.OnWindowAcked(4))
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(2))
	assert.Equal(t, w.State(), CongestionAvoidance)
	assert.DeepEqual(t, drain(w, 4), []protocol.SeqNo{5, 6})

	// frames buffered by the peer before the timeout are acknowledged at once
	assert.Assert(t, w.OnWindowAcked(12))
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(3))
	assert.Equal(t, w.Base(), protocol.SeqNo(12))
	assert.Assert(t, !w.OnWindowAcked(12))
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(3))
	assert.DeepEqual(t, drain(w, 12), []protocol.SeqNo{13, 14, 15})
}

func TestTimeout(t *testing.T) {
	w, err := NewWindow(50)
	assert.NilError(t, err)

	// grow to cwnd=8 with base=7
	var lastAck protocol.SeqNo
	for w.Cwnd() < 8 {
		drain(w, lastAck)
		lastAck = w.Sent() - 1
		w.OnWindowAcked(lastAck)
	}
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(8))
	drain(w, lastAck)

	// only part of the round is acknowledged before the timer expires
	lastAck += 3
	assert.Assert(t, w.CanTimeout(lastAck))
	w.OnRetransmissionTimeout(lastAck)
	assert.Equal(t, w.Ssthresh(), protocol.PacketCount(4))
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(1))
	assert.Equal(t, w.Base(), lastAck)
	assert.Equal(t, w.State(), SlowStart)

	seqs := drain(w, lastAck)
	assert.DeepEqual(t, seqs, []protocol.SeqNo{lastAck + 1})
}

func TestTimeoutAtMinimumWindow(t *testing.T) {
	w, err := NewWindow(5)
	assert.NilError(t, err)
	drain(w, 0)

	w.OnRetransmissionTimeout(0)
	assert.Equal(t, w.Ssthresh(), protocol.PacketCount(1))
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(1))
	assert.Equal(t, w.State(), CongestionAvoidance)

	// the window still opens
	assert.DeepEqual(t, drain(w, 0), []protocol.SeqNo{1})
	assert.Assert(t, w.OnWindowAcked(1))
	assert.Equal(t, w.Cwnd(), protocol.PacketCount(2))
}

func TestNoTimeoutOnFullWindow(t *testing.T) {
	w, err := NewWindow(4)
	assert.NilError(t, err)
	drain(w, 0)
	assert.Assert(t, w.CanTimeout(0))
	assert.Assert(t, !w.CanTimeout(1))
	assert.Assert(t, !w.CanTimeout(4))
}

func TestSkipsAcknowledgedPackets(t *testing.T) {
	w, err := NewWindow(10)
	assert.NilError(t, err)
	drain(w, 0)
	assert.Assert(t, w.OnWindowAcked(1))
	drain(w, 1)

	// timeout rewinds to 2, then a late cumulative ack for 3 arrives
	w.OnRetransmissionTimeout(1)
	assert.Assert(t, w.OnWindowAcked(3))
	seq, ok := w.NextToSend(3)
	assert.Assert(t, ok)
	assert.Equal(t, seq, protocol.SeqNo(4))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, SlowStart.String(), "slow-start")
	assert.Equal(t, CongestionAvoidance.String(), "congestion-avoidance")
	assert.Equal(t, TimeoutRecovery.String(), "timeout-recovery")
	assert.Equal(t, State(9).String(), "state(9)")
}
