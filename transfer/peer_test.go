package transfer

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"hop.computer/cctransfer/common"
	"hop.computer/cctransfer/congestion/protocol"
	"hop.computer/cctransfer/frame"
)

const fourNodeTopology = "4\r\n0 1 4 Infinity 1 0 2 5 4 2 0 1 Infinity 5 1 0\r\n"

// testPeer is the receiving end of a transfer. It acknowledges the highest
// contiguous sequence number after every frame.
type testPeer struct {
	conn net.Conn
	r    *bufio.Reader

	// topology is written before anything else when non-empty.
	topology string
	// header makes the peer read the path, file name and packet count lines.
	header bool
	// drop reports whether the given transmission of seq is lost.
	drop func(seq protocol.SeqNo, attempt int) bool
	// silent peers never acknowledge.
	silent bool
	// acks replaces the computed acknowledgments when non-nil.
	acks func(contiguous protocol.SeqNo) []string

	mu       sync.Mutex
	path     string
	name     string
	total    protocol.PacketCount
	attempts map[protocol.SeqNo]int
	frames   map[protocol.SeqNo]*frame.Frame
}

func newTestPeer(conn net.Conn) *testPeer {
	return &testPeer{
		conn:     conn,
		r:        bufio.NewReader(conn),
		attempts: make(map[protocol.SeqNo]int),
		frames:   make(map[protocol.SeqNo]*frame.Frame),
	}
}

func (p *testPeer) run(total protocol.PacketCount) error {
	defer p.conn.Close()
	p.total = total
	if p.topology != "" {
		if _, err := io.WriteString(p.conn, p.topology); err != nil {
			return errors.Wrap(err, "peer: writing topology")
		}
	}
	if p.header {
		var err error
		if p.path, err = common.ReadLine(p.r); err != nil {
			return errors.Wrap(err, "peer: reading path")
		}
		if p.name, err = common.ReadLine(p.r); err != nil {
			return errors.Wrap(err, "peer: reading name")
		}
		count, err := common.ReadLine(p.r)
		if err != nil {
			return errors.Wrap(err, "peer: reading count")
		}
		n, err := strconv.Atoi(count)
		if err != nil {
			return errors.Wrap(err, "peer: parsing count")
		}
		p.total = protocol.PacketCount(n)
	}

	var contiguous protocol.SeqNo
	buf := make([]byte, protocol.FrameSize)
	for {
		if _, err := io.ReadFull(p.r, buf); err != nil {
			if p.complete(contiguous) && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe)) {
				return nil
			}
			return errors.Wrap(err, "peer: reading frame")
		}
		f, err := frame.FromBytes(buf)
		if err != nil {
			return err
		}

		p.mu.Lock()
		p.attempts[f.SeqNo]++
		attempt := p.attempts[f.SeqNo]
		p.mu.Unlock()
		if p.drop != nil && p.drop(f.SeqNo, attempt) {
			continue
		}

		data := make([]byte, len(f.Data))
		copy(data, f.Data)
		p.mu.Lock()
		p.frames[f.SeqNo] = &frame.Frame{SeqNo: f.SeqNo, Data: data}
		for p.frames[contiguous+1] != nil {
			contiguous++
		}
		p.mu.Unlock()

		if p.silent {
			continue
		}
		lines := []string{strconv.FormatInt(int64(contiguous), 10)}
		if p.acks != nil {
			lines = p.acks(contiguous)
		}
		for _, line := range lines {
			if _, err := common.WriteLine(line, p.conn); err != nil {
				if p.complete(contiguous) {
					return nil
				}
				return errors.Wrap(err, "peer: writing ack")
			}
		}
	}
}

func (p *testPeer) complete(contiguous protocol.SeqNo) bool {
	return p.total > 0 && protocol.PacketCount(contiguous) >= p.total
}

// payload reassembles what the peer received.
func (p *testPeer) payload(size int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	frames := make([]*frame.Frame, 0, len(p.frames))
	for _, f := range p.frames {
		frames = append(frames, f)
	}
	return frame.Reassemble(frames, size)
}

func (p *testPeer) transmissions(seq protocol.SeqNo) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts[seq]
}
