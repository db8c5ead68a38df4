// Command dbkit introspects databases and creates tables from definition
// files. It uses the cobra package for the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
