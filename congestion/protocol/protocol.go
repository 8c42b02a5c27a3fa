// Package protocol exports the types and constants shared by the congestion,
// frame and transfer packages.
package protocol

import "time"

// SeqNo is a 1-based packet sequence number. Zero means "nothing acknowledged
// yet".
type SeqNo int64

// PacketCount is a number of packets, used for window sizes and totals.
type PacketCount int64

// ChunkSize is the number of payload bytes carried by every frame.
const ChunkSize = 1000

// HeaderSize is the length of the big-endian sequence number header.
const HeaderSize = 4

// FrameSize is the fixed length of every frame written to the wire.
const FrameSize = HeaderSize + ChunkSize

// InitialWindow is the congestion window a transfer starts with.
const InitialWindow PacketCount = 1

// MinWindow bounds cwnd and ssthresh from below so a timeout at cwnd=1 can
// never stall the sender.
const MinWindow PacketCount = 1

// TimeoutBase and TimeoutFactor define the retransmission timeout derived from
// a path distance in milliseconds: distance*TimeoutFactor + TimeoutBase.
const (
	TimeoutBase   = 200 * time.Millisecond
	TimeoutFactor = 2
)

// InvalidSeqNo is published in place of an acknowledgment when the
// acknowledgment stream terminates abnormally.
const InvalidSeqNo SeqNo = -1
