// flowlink maps externally supplied flow descriptions to canonical flows in
// a reference data store, caching every resolution in a mapping file.
package main

import (
	"os"

	"github.com/lcatools/flowlink/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
