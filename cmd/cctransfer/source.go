package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"hop.computer/cctransfer/common"
	"hop.computer/cctransfer/transfer"
)

// newFileSource returns a source that reads name from disk. When name is
// empty it reads one from in, printing a prompt on out if interactive.
func newFileSource(name string, in io.Reader, out io.Writer, interactive bool) transfer.FileSource {
	return transfer.FileSourceFunc(func() (string, []byte, error) {
		if name == "" {
			if interactive {
				fmt.Fprint(out, "File to send: ")
			}
			line, err := common.ReadLine(bufio.NewReader(in))
			if err != nil {
				return "", nil, errors.Wrap(err, "reading file name")
			}
			name = strings.TrimSpace(line)
		}
		payload, err := os.ReadFile(name)
		if err != nil {
			return "", nil, err
		}
		return name, payload, nil
	})
}
