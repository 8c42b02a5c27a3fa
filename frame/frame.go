// Package frame splits a payload into fixed-size, sequence-numbered frames.
//
// Every frame on the wire is exactly protocol.FrameSize bytes:
//
//	+--------+--------+--------+--------+------------------------+
//	|   sequence number (uint32, BE)    |  payload, 1000 bytes   |
//	+--------+--------+--------+--------+------------------------+
//
// The payload of the last frame may be shorter than protocol.ChunkSize; the
// rest of the frame is zero-filled. Receivers use the announced packet count
// and file size to drop the padding.
package frame

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"hop.computer/cctransfer/congestion/protocol"
)

var (
	// ErrBadSeqNo is returned for sequence numbers outside 1..Total.
	ErrBadSeqNo = errors.New("sequence number out of range")
	// ErrShortFrame is returned when decoding fewer than FrameSize bytes.
	ErrShortFrame = errors.New("frame too short")
	// ErrMissingFrame is returned by Reassemble when a sequence number is absent or duplicated.
	ErrMissingFrame = errors.New("missing frame")
)

// Frame is one sequence-numbered chunk of the payload.
type Frame struct {
	SeqNo protocol.SeqNo
	Data  []byte
}

// Encode writes the frame into b, which must hold protocol.FrameSize bytes.
// Bytes after the payload are zeroed.
func (f *Frame) Encode(b []byte) {
	binary.BigEndian.PutUint32(b[:protocol.HeaderSize], uint32(f.SeqNo))
	n := copy(b[protocol.HeaderSize:protocol.FrameSize], f.Data)
	clear(b[protocol.HeaderSize+n : protocol.FrameSize])
}

// ToBytes returns the wire encoding of the frame.
func (f *Frame) ToBytes() []byte {
	b := make([]byte, protocol.FrameSize)
	f.Encode(b)
	return b
}

// FromBytes decodes a frame. The returned Data always holds ChunkSize bytes
// including any padding and aliases b.
func FromBytes(b []byte) (*Frame, error) {
	if len(b) < protocol.FrameSize {
		return nil, errors.Wrapf(ErrShortFrame, "%d bytes", len(b))
	}
	return &Frame{
		SeqNo: protocol.SeqNo(binary.BigEndian.Uint32(b[:protocol.HeaderSize])),
		Data:  b[protocol.HeaderSize:protocol.FrameSize],
	}, nil
}

// Count is the number of packets needed for size bytes: size/ChunkSize + 1.
// A payload that is an exact multiple of ChunkSize ends with an empty packet.
func Count(size int) protocol.PacketCount {
	return protocol.PacketCount(size/protocol.ChunkSize + 1)
}

// Packetizer hands out the frames of an in-memory payload by sequence number,
// so any packet can be retransmitted.
type Packetizer struct {
	payload []byte
	total   protocol.PacketCount
}

// NewPacketizer returns a Packetizer over payload. payload is not copied.
func NewPacketizer(payload []byte) *Packetizer {
	return &Packetizer{
		payload: payload,
		total:   Count(len(payload)),
	}
}

// Total is the number of packets.
func (p *Packetizer) Total() protocol.PacketCount {
	return p.total
}

// Size is the payload length in bytes.
func (p *Packetizer) Size() int {
	return len(p.payload)
}

// Frame returns packet seq. Its Data aliases the payload.
func (p *Packetizer) Frame(seq protocol.SeqNo) (*Frame, error) {
	if seq < 1 || protocol.PacketCount(seq) > p.total {
		return nil, errors.Wrapf(ErrBadSeqNo, "%d not in 1..%d", seq, p.total)
	}
	start := int(seq-1) * protocol.ChunkSize
	end := min(start+protocol.ChunkSize, len(p.payload))
	return &Frame{SeqNo: seq, Data: p.payload[start:end]}, nil
}

// Frames returns all packets in sequence order.
func (p *Packetizer) Frames() []*Frame {
	frames := make([]*Frame, 0, p.total)
	for seq := protocol.SeqNo(1); protocol.PacketCount(seq) <= p.total; seq++ {
		f, _ := p.Frame(seq)
		frames = append(frames, f)
	}
	return frames
}

// Reassemble concatenates the payloads of frames in sequence order and cuts
// the result to size bytes. frames must contain each of 1..Count(size) once.
func Reassemble(frames []*Frame, size int) ([]byte, error) {
	total := Count(size)
	if protocol.PacketCount(len(frames)) != total {
		return nil, errors.Wrapf(ErrMissingFrame, "got %d frames, expected %d", len(frames), total)
	}
	sorted := make([]*Frame, len(frames))
	copy(sorted, frames)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SeqNo < sorted[j].SeqNo })

	out := make([]byte, 0, int(total)*protocol.ChunkSize)
	for i, f := range sorted {
		if f.SeqNo != protocol.SeqNo(i+1) {
			return nil, errors.Wrapf(ErrMissingFrame, "sequence number %d", i+1)
		}
		out = append(out, f.Data...)
	}
	if len(out) < size {
		return nil, errors.Wrapf(ErrMissingFrame, "reassembled %d of %d bytes", len(out), size)
	}
	return out[:size], nil
}
