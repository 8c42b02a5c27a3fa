package transfer

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"hop.computer/cctransfer/common"
	"hop.computer/cctransfer/congestion/protocol"
	"hop.computer/cctransfer/graph"
)

// ErrBadFileName is returned for a file name that cannot be sent on one line.
var ErrBadFileName = errors.New("invalid file name")

// ReceiveTopology reads the node count line and the distance matrix line and
// builds the graph.
func (s *Session) ReceiveTopology() (*graph.Graph, error) {
	countLine, err := common.ReadLine(s.reader)
	if err != nil {
		return nil, errors.Wrap(err, "reading node count")
	}
	matrixLine, err := common.ReadLine(s.reader)
	if err != nil {
		return nil, errors.Wrap(err, "reading distance matrix")
	}
	g, err := graph.Parse(countLine, matrixLine)
	if err != nil {
		return nil, errors.Wrap(err, "parsing topology")
	}
	s.log.WithField("nodes", g.Len()).Debug("received topology")
	return g, nil
}

// AnnouncePath sends the chosen path, e.g. "[0, 1, 2, 3]".
func (s *Session) AnnouncePath(p graph.Path) error {
	if _, err := common.WriteLine(p.String(), s.conn); err != nil {
		return errors.Wrap(err, "sending path")
	}
	return nil
}

// AnnounceFile sends the file name and the packet count.
func (s *Session) AnnounceFile(name string, total protocol.PacketCount) error {
	if name == "" || strings.ContainsAny(name, "\r\n") {
		return errors.Wrapf(ErrBadFileName, "%q", name)
	}
	if _, err := common.WriteLine(name, s.conn); err != nil {
		return errors.Wrap(err, "sending file name")
	}
	if _, err := common.WriteLine(strconv.FormatInt(int64(total), 10), s.conn); err != nil {
		return errors.Wrap(err, "sending packet count")
	}
	return nil
}
