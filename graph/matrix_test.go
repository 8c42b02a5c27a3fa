package graph

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestParse(t *testing.T) {
	g, err := Parse("4\r\n", "0 1 4 Infinity 1 0 2 5 4 2 0 1 Infinity 5 1 0")
	assert.NilError(t, err)
	assert.Equal(t, g.Len(), 4)
	assert.NilError(t, g.ComputePaths(0))
	assert.DeepEqual(t, g.Distances(), []float64{0, 1, 3, 4})
}

func TestParseFractional(t *testing.T) {
	m, err := ParseMatrix(2, "0 2.5\t1e1 0")
	assert.NilError(t, err)
	assert.DeepEqual(t, m, [][]float64{{0, 2.5}, {10, 0}})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		count  string
		matrix string
		err    error
	}{
		{"count not a number", "four", "", ErrBadNodeCount},
		{"zero count", "0", "", ErrBadNodeCount},
		{"negative count", "-2", "", ErrBadNodeCount},
		{"too few tokens", "2", "0 1 1", ErrBadMatrix},
		{"too many tokens", "1", "0 1", ErrBadMatrix},
		{"garbage token", "2", "0 x 1 0", ErrBadMatrix},
		{"lowercase sentinel", "1", "infinityx", ErrBadMatrix},
		{"negative weight", "2", "0 -3 1 0", ErrNegativeWeight},
		{"negative infinity", "2", "0 -Infinity 1 0", ErrNegativeWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.count, tt.matrix)
			assert.Assert(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}
