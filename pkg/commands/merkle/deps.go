// Package merkle provides CLI commands for Merkle whitelist trees.
package merkle

import "os"

// WhitelistReaderFunc reads the raw "address:power" whitelist at path.
type WhitelistReaderFunc func(path string) ([]byte, error)

// Deps holds the injectable dependencies for merkle commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// WhitelistReader reads whitelist files.
	// Default: os.ReadFile
	WhitelistReader WhitelistReaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.WhitelistReader == nil {
		d.WhitelistReader = os.ReadFile
	}
}
