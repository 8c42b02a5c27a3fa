package graph

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// InfinityToken is the textual sentinel for a missing edge.
const InfinityToken = "Infinity"

var (
	// ErrBadNodeCount is returned for a node count that is not a positive integer.
	ErrBadNodeCount = errors.New("invalid node count")
	// ErrBadMatrix is returned when the matrix line cannot be parsed.
	ErrBadMatrix = errors.New("invalid distance matrix")
)

// ParseNodeCount parses the decimal node count line.
func ParseNodeCount(line string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, errors.Wrapf(ErrBadNodeCount, "%q", line)
	}
	if n <= 0 {
		return 0, errors.Wrapf(ErrBadNodeCount, "%d", n)
	}
	return n, nil
}

// ParseMatrix parses n*n whitespace separated weights in row-major order. Each
// token is a non-negative real or InfinityToken.
func ParseMatrix(n int, line string) ([][]float64, error) {
	tokens := strings.Fields(line)
	if len(tokens) != n*n {
		return nil, errors.Wrapf(ErrBadMatrix, "got %d tokens, expected %d", len(tokens), n*n)
	}
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			w, err := parseWeight(tokens[i*n+j])
			if err != nil {
				return nil, errors.Wrapf(err, "entry (%d, %d)", i, j)
			}
			matrix[i][j] = w
		}
	}
	return matrix, nil
}

func parseWeight(tok string) (float64, error) {
	if tok == InfinityToken {
		return Infinity, nil
	}
	w, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrBadMatrix, "token %q", tok)
	}
	if w < 0 {
		return 0, errors.Wrapf(ErrNegativeWeight, "token %q", tok)
	}
	return w, nil
}

// Parse builds a graph from the node count line and the matrix line.
func Parse(countLine, matrixLine string) (*Graph, error) {
	n, err := ParseNodeCount(countLine)
	if err != nil {
		return nil, err
	}
	matrix, err := ParseMatrix(n, matrixLine)
	if err != nil {
		return nil, err
	}
	return New(matrix)
}
