// Package transfer sends a file to a peer over an established byte stream
// under a congestion-controlled sliding window.
//
// A Session first reads the network topology from the peer, derives the
// retransmission timeout from its shortest paths, announces the path, the
// file name and the packet count, and then streams fixed-size frames while an
// acknowledgment monitor reads cumulative acks concurrently.
package transfer

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"hop.computer/cctransfer/common"
	"hop.computer/cctransfer/congestion"
	"hop.computer/cctransfer/congestion/protocol"
	"hop.computer/cctransfer/frame"
)

var (
	// ErrAborted is returned when the acknowledgment stream ended before the
	// transfer completed.
	ErrAborted = errors.New("transfer aborted")
	// ErrPeerUnresponsive is returned after too many consecutive
	// retransmission timeouts without progress.
	ErrPeerUnresponsive = errors.New("peer stopped acknowledging")
)

// Config holds the tunables of a session.
type Config struct {
	// MaxTimeouts is the number of consecutive timeouts without a new
	// acknowledgment after which the transfer fails. Zero disables the limit.
	MaxTimeouts int
	// Metrics receives transfer statistics. When nil, the session uses its
	// own unregistered collectors.
	Metrics *Metrics
}

// Stats summarizes a finished transfer.
type Stats struct {
	Packets         protocol.PacketCount
	FramesSent      int
	Retransmissions int
	Timeouts        int
	FinalCwnd       protocol.PacketCount
	FinalSsthresh   protocol.PacketCount
	Duration        time.Duration
}

// A FileSource supplies the file to send once the path has been announced.
type FileSource interface {
	Open() (name string, payload []byte, err error)
}

// FileSourceFunc adapts a function to FileSource.
type FileSourceFunc func() (string, []byte, error)

// Open implements FileSource.
func (f FileSourceFunc) Open() (string, []byte, error) { return f() }

// Session is one transfer over one connection. The connection is owned by the
// session and closed exactly once.
type Session struct {
	ID uuid.UUID

	conn    io.ReadWriteCloser
	reader  *bufio.Reader
	config  Config
	metrics *Metrics
	log     *logrus.Entry

	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	failErr error
}

// NewSession wraps an established connection.
func NewSession(conn io.ReadWriteCloser, config Config) *Session {
	id := uuid.New()
	metrics := config.Metrics
	if metrics == nil {
		// unregistered collectors cannot fail
		metrics, _ = NewMetrics(nil)
	}
	return &Session{
		ID:      id,
		conn:    conn,
		reader:  bufio.NewReader(conn),
		config:  config,
		metrics: metrics,
		log:     logrus.WithField("session", id.String()),
	}
}

// Close closes the connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// fail records the first unrecoverable error of the transfer and closes the
// connection so that both actors unblock.
func (s *Session) fail(err error) {
	s.mu.Lock()
	first := s.failErr == nil
	if first {
		s.failErr = err
	}
	s.mu.Unlock()
	if !first {
		return
	}
	if cerr := s.Close(); cerr != nil {
		s.log.WithError(cerr).Debug("closing connection after failure")
	}
}

// failure returns the error recorded by fail, if any.
func (s *Session) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failErr
}

// Run performs the whole exchange: topology, path announcement, file
// announcement and the binary transfer. The connection is closed on return.
// Canceling ctx closes the connection, which unblocks every step.
func (s *Session) Run(ctx context.Context, src FileSource) (*Stats, error) {
	stop := context.AfterFunc(ctx, func() { s.fail(ctx.Err()) })
	defer stop()
	defer func() {
		if err := s.Close(); err != nil {
			s.log.WithError(err).Debug("closing connection")
		}
	}()

	g, err := s.ReceiveTopology()
	if err != nil {
		return nil, s.canceled(ctx, err)
	}
	route, err := PlanRoute(g, s.log)
	if err != nil {
		return nil, err
	}
	if err := s.AnnouncePath(route.Path); err != nil {
		return nil, s.canceled(ctx, err)
	}

	name, payload, err := openSource(ctx, src)
	if err != nil {
		return nil, s.canceled(ctx, errors.Wrap(err, "loading file"))
	}
	p := frame.NewPacketizer(payload)
	if err := s.AnnounceFile(name, p.Total()); err != nil {
		return nil, s.canceled(ctx, err)
	}
	s.log.WithFields(logrus.Fields{
		"file":    name,
		"size":    p.Size(),
		"packets": p.Total(),
		"timeout": route.Timeout,
	}).Info("starting transfer")

	return s.Transfer(ctx, p, route.Timeout)
}

// Transfer streams the packets of p, retransmitting after timeout, until the
// peer acknowledges the last packet. It runs the window controller and the
// acknowledgment monitor concurrently and returns once both have stopped.
func (s *Session) Transfer(ctx context.Context, p *frame.Packetizer, timeout time.Duration) (*Stats, error) {
	window, err := congestion.NewWindow(p.Total())
	if err != nil {
		return nil, err
	}
	acks := newAckState()
	s.metrics.LastAck.Set(0)

	mon := &ackMonitor{
		r:       s.reader,
		total:   p.Total(),
		acks:    acks,
		metrics: s.metrics,
		log:     s.log.WithField("actor", "ack-monitor"),
	}
	ctl := &controller{
		w:           s.conn,
		packets:     p,
		window:      window,
		acks:        acks,
		timeout:     timeout,
		maxTimeouts: s.config.MaxTimeouts,
		metrics:     s.metrics,
		log:         s.log.WithField("actor", "controller"),
	}

	start := time.Now()
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := mon.run()
		if err != nil {
			s.fail(err)
			acks.abort()
		}
		return err
	})
	group.Go(func() error {
		err := ctl.run(gctx)
		if err != nil {
			s.fail(err)
		}
		return err
	})
	_ = group.Wait()

	stats := ctl.stats
	stats.Duration = time.Since(start)
	if err := s.failure(); err != nil {
		s.log.WithError(err).Error("transfer failed")
		return &stats, err
	}
	s.log.WithFields(logrus.Fields{
		"packets":         stats.Packets,
		"frames":          stats.FramesSent,
		"retransmissions": stats.Retransmissions,
		"timeouts":        stats.Timeouts,
		"duration":        stats.Duration,
	}).Info("transfer complete")
	return &stats, nil
}

// canceled replaces err with the context error when ctx ended, since the
// stream error is then only a consequence of the connection being closed.
func (s *Session) canceled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// openSource calls src.Open without outliving ctx. A source still blocked
// after cancellation finishes in the background and its result is dropped.
func openSource(ctx context.Context, src FileSource) (string, []byte, error) {
	type opened struct {
		name    string
		payload []byte
		err     error
	}
	done := make(chan opened, 1)
	go func() {
		name, payload, err := src.Open()
		done <- opened{name, payload, err}
	}()
	select {
	case o := <-done:
		return o.name, o.payload, o.err
	case <-ctx.Done():
		return "", nil, ctx.Err()
	}
}

// ackState is the only state shared by the two actors. The monitor is the
// only writer of lastAck.
type ackState struct {
	lastAck common.MonotonicInt64
	notify  chan struct{}
}

func newAckState() *ackState {
	return &ackState{notify: make(chan struct{}, 1)}
}

func (a *ackState) load() protocol.SeqNo {
	return protocol.SeqNo(a.lastAck.Load())
}

func (a *ackState) wake() {
	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// publish stores ack if it advances lastAck.
func (a *ackState) publish(ack protocol.SeqNo) bool {
	if !a.lastAck.Advance(int64(ack)) {
		return false
	}
	a.wake()
	return true
}

// abort publishes the termination sentinel.
func (a *ackState) abort() {
	a.lastAck.Poison(int64(protocol.InvalidSeqNo))
	a.wake()
}
