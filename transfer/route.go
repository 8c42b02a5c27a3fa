package transfer

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hop.computer/cctransfer/congestion"
	"hop.computer/cctransfer/graph"
)

// Source is the node shortest paths are computed from.
const Source graph.NodeID = 0

// Route is what the sender derives from the topology.
type Route struct {
	// Target is the node that decides the timeout: the last node in
	// identifier order.
	Target graph.NodeID
	// Path is the shortest path from Source to Target.
	Path      graph.Path
	Distances []float64
	Timeout   time.Duration
}

// PlanRoute computes shortest paths from Source and derives the announced path
// and the retransmission timeout from the last node. It fails if that node is
// unreachable.
func PlanRoute(g *graph.Graph, log *logrus.Entry) (*Route, error) {
	if err := g.ComputePaths(Source); err != nil {
		return nil, err
	}
	for _, n := range g.Nodes() {
		p, err := g.PathTo(n.ID)
		if err != nil {
			log.WithField("node", n.ID).Info("node unreachable")
			continue
		}
		log.WithFields(logrus.Fields{
			"node":     n.ID,
			"distance": n.MinDistance,
			"path":     p.String(),
		}).Info("shortest path")
	}

	target := graph.NodeID(g.Len() - 1)
	path, err := g.PathTo(target)
	if err != nil {
		return nil, errors.Wrap(err, "choosing timeout node")
	}
	dists := g.Distances()
	timeout, err := congestion.RetransmitTimeout(dists)
	if err != nil {
		return nil, err
	}
	return &Route{
		Target:    target,
		Path:      path,
		Distances: dists,
		Timeout:   timeout,
	}, nil
}
