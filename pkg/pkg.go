// Package pkg contains standalone utility functions that do not depend on
// anything except themselves.
package pkg

import (
	"fmt"
)

// Panicf functions like printf, but for constructing a string sent to panic.
func Panicf(msg string, args ...interface{}) {
	panic(fmt.Sprintf(msg, args...))
}
