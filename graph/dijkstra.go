package graph

import (
	"container/heap"

	"github.com/pkg/errors"
)

// ErrNotComputed is returned when paths are requested before ComputePaths.
var ErrNotComputed = errors.New("shortest paths have not been computed")

type frontier []*Node

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	return f[i].MinDistance < f[j].MinDistance
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index = i
	f[j].index = j
}

func (f *frontier) Push(x any) {
	node := x.(*Node)
	node.index = len(*f)
	*f = append(*f, node)
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*f = old[:n-1]
	return node
}

// relax lowers the tentative distance of node and restores the heap order,
// queueing the node if it is not in the frontier.
func (f *frontier) relax(node *Node, dist float64, prev *Node) {
	node.MinDistance = dist
	node.Previous = prev
	if node.index >= 0 {
		heap.Fix(f, node.index)
		return
	}
	heap.Push(f, node)
}

// ComputePaths runs Dijkstra's algorithm from source. Every node reachable from
// source ends with its shortest distance; the others keep Infinity. Results of
// a previous computation are discarded.
func (g *Graph) ComputePaths(source NodeID) error {
	src, err := g.Node(source)
	if err != nil {
		return err
	}
	for _, n := range g.nodes {
		n.MinDistance = Infinity
		n.Previous = nil
		n.index = -1
	}

	queue := make(frontier, 0, len(g.nodes))
	queue.relax(src, 0, nil)

	for queue.Len() > 0 {
		current := heap.Pop(&queue).(*Node)
		for _, e := range current.Edges {
			through := current.MinDistance + e.Weight
			if through < e.Target.MinDistance {
				queue.relax(e.Target, through, current)
			}
		}
	}

	g.source = src
	g.computed = true
	return nil
}

// Source returns the node the last computation started from.
func (g *Graph) Source() (NodeID, error) {
	if !g.computed {
		return 0, ErrNotComputed
	}
	return g.source.ID, nil
}
