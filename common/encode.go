package common

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// WriteLine writes s followed by CRLF.
func WriteLine(s string, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s+CRLF)
	return int64(n), err
}

// ReadLine reads one line and strips the LF or CRLF terminator. A final line
// without a terminator is returned with a nil error; io.EOF is only returned
// when nothing was read.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
