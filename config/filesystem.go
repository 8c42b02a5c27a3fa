package config

import (
	"io/fs"
	"os"
)

// fileSystem is where LoadFromFile reads config files from. Tests swap in a
// fstest.MapFS.
var fileSystem fs.FS = osFS{}

// osFS opens config paths as given, absolute or relative to the working
// directory.
type osFS struct{}

func (osFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}
