package common

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"gotest.tools/assert"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteLine("[0, 1, 2, 3]", &buf)
	assert.NilError(t, err)
	assert.Equal(t, n, int64(14))
	assert.Equal(t, buf.String(), "[0, 1, 2, 3]\r\n")
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("4\r\n0 1\n\nlast"))
	for _, want := range []string{"4", "0 1", "", "last"} {
		got, err := ReadLine(r)
		assert.NilError(t, err)
		assert.Equal(t, got, want)
	}
	_, err := ReadLine(r)
	assert.Equal(t, err, io.EOF)
}
