package graph

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnreachable is returned for a node without a finite path from the source.
var ErrUnreachable = errors.New("node is unreachable")

// Path is a sequence of node IDs from the source to a target.
type Path []NodeID

// PathTo reconstructs the shortest path from the source to target by walking
// the Previous links back to the source.
func (g *Graph) PathTo(target NodeID) (Path, error) {
	if !g.computed {
		return nil, ErrNotComputed
	}
	node, err := g.Node(target)
	if err != nil {
		return nil, err
	}
	if !node.Reachable() {
		return nil, errors.Wrapf(ErrUnreachable, "node %d", target)
	}

	var path Path
	for n := node; n != nil; n = n.Previous {
		path = append(path, n.ID)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path[0] != g.source.ID {
		return nil, errors.Errorf("path to node %d does not start at source %d", target, g.source.ID)
	}
	return path, nil
}

// Weight sums the edge weights along the path.
func (g *Graph) Weight(p Path) (float64, error) {
	var total float64
	for i := 1; i < len(p); i++ {
		from, err := g.Node(p[i-1])
		if err != nil {
			return 0, err
		}
		if _, err := g.Node(p[i]); err != nil {
			return 0, err
		}
		total += from.Edges[p[i]].Weight
	}
	return total, nil
}

// String formats the path the way it is announced to the peer, e.g.
// "[0, 1, 2, 3]".
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range p {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(int(id)))
	}
	b.WriteByte(']')
	return b.String()
}
