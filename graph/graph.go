// Package graph holds the weighted directed graph received from the peer and
// computes single-source shortest paths over it.
package graph

import (
	"math"

	"github.com/pkg/errors"
)

// NodeID identifies a node. Nodes of a graph with N nodes are numbered 0..N-1.
type NodeID int

// Infinity is the weight of a missing edge and the distance of a node that
// cannot be reached.
var Infinity = math.Inf(1)

var (
	// ErrEmptyGraph is returned for a matrix without any nodes.
	ErrEmptyGraph = errors.New("graph has no nodes")
	// ErrNotSquare is returned when a row length differs from the row count.
	ErrNotSquare = errors.New("distance matrix is not square")
	// ErrNegativeWeight is returned for negative or NaN edge weights.
	ErrNegativeWeight = errors.New("negative edge weight")
	// ErrUnknownNode is returned when a node ID is out of range.
	ErrUnknownNode = errors.New("unknown node")
)

// Node is a vertex of the graph. MinDistance and Previous are only meaningful
// after ComputePaths.
type Node struct {
	ID          NodeID
	MinDistance float64
	Previous    *Node
	Edges       []Edge

	index int // position in the frontier, -1 when not queued
}

// Edge is an outgoing edge. A weight of Infinity means "unreachable".
type Edge struct {
	Target *Node
	Weight float64
}

// Graph is a complete directed graph built from an adjacency matrix: a graph
// of N nodes has exactly N*N edges, including self edges.
type Graph struct {
	nodes    []*Node
	source   *Node
	computed bool
}

// New builds a graph from a square adjacency matrix. matrix[i][j] is the
// weight of the edge from i to j.
func New(matrix [][]float64) (*Graph, error) {
	n := len(matrix)
	if n == 0 {
		return nil, ErrEmptyGraph
	}
	g := &Graph{nodes: make([]*Node, n)}
	for i := range g.nodes {
		g.nodes[i] = &Node{ID: NodeID(i), MinDistance: Infinity, index: -1}
	}
	for i, row := range matrix {
		if len(row) != n {
			return nil, errors.Wrapf(ErrNotSquare, "row %d has %d entries, expected %d", i, len(row), n)
		}
		edges := make([]Edge, n)
		for j, w := range row {
			if w < 0 || math.IsNaN(w) {
				return nil, errors.Wrapf(ErrNegativeWeight, "edge %d->%d has weight %v", i, j, w)
			}
			edges[j] = Edge{Target: g.nodes[j], Weight: w}
		}
		g.nodes[i].Edges = edges
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, errors.Wrapf(ErrUnknownNode, "node %d of %d", id, len(g.nodes))
	}
	return g.nodes[id], nil
}

// Nodes returns the nodes in identifier order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Distances returns MinDistance of every node in identifier order.
func (g *Graph) Distances() []float64 {
	dists := make([]float64, len(g.nodes))
	for i, n := range g.nodes {
		dists[i] = n.MinDistance
	}
	return dists
}

// Reachable reports whether a finite path from the source to n exists.
func (n *Node) Reachable() bool {
	return !math.IsInf(n.MinDistance, 1)
}
