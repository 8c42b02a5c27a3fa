package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"hop.computer/cctransfer/common"
	"hop.computer/cctransfer/config"
	"hop.computer/cctransfer/flags"
	"hop.computer/cctransfer/transfer"
)

func main() {
	f, err := flags.ParseArgs(os.Args, os.Stderr)
	if err != nil {
		logrus.Error(err)
		os.Exit(2)
	}
	c, err := flags.LoadConfigFromFlags(f)
	if err != nil {
		logrus.Fatalf("error loading config: %s", err)
	}
	setupLogging(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, c)
	stop()
	if err != nil {
		logrus.Fatal(err)
	}
}

func setupLogging(c *config.Config) {
	logrus.SetLevel(c.Level())
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func run(ctx context.Context, c *config.Config) error {
	sc := transfer.Config{MaxTimeouts: c.MaxTimeouts}
	if c.MetricsAddress != "" {
		reg := prometheus.NewRegistry()
		m, err := transfer.NewMetrics(reg)
		if err != nil {
			return err
		}
		sc.Metrics = m
		srv := serveMetrics(c.MetricsAddress, reg)
		defer srv.Close()
	}

	conn, err := connect(ctx, c)
	if err != nil {
		return err
	}
	s := transfer.NewSession(conn, sc)
	src := newFileSource(c.File, os.Stdin, os.Stderr, isatty.IsTerminal(os.Stdin.Fd()))
	stats, err := s.Run(ctx, src)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"session":         s.ID.String(),
		"packets":         stats.Packets,
		"frames":          stats.FramesSent,
		"retransmissions": stats.Retransmissions,
		"timeouts":        stats.Timeouts,
		"duration":        stats.Duration,
	}).Info("transfer complete")
	return nil
}

// connect dials the receiver in client mode. In server mode it accepts
// exactly one connection and stops listening.
func connect(ctx context.Context, c *config.Config) (net.Conn, error) {
	if c.Mode == common.ClientMode {
		var d net.Dialer
		logrus.Infof("connecting to %s", c.Address())
		return d.DialContext(ctx, "tcp", c.Address())
	}

	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", c.Address())
	if err != nil {
		return nil, err
	}
	defer l.Close()
	logrus.Infof("waiting for a receiver on %s", l.Addr())

	accepted := make(chan struct{})
	defer close(accepted)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-accepted:
		}
	}()
	conn, err := l.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	logrus.Infof("receiver connected from %s", conn.RemoteAddr())
	return conn, nil
}

func serveMetrics(address string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: address, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server: %s", err)
		}
	}()
	return srv
}
