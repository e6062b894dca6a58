// Command backy-fuse mounts every revision found under a base directory
// as a flat directory of fixed-size files, per spec.md section 6's FUSE
// CLI.
package main

import (
	"fmt"
	"os"

	"github.com/flyingcircusio/backy-extract/cmd/backy-fuse/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "backy-fuse: %v\n", err)
		os.Exit(1)
	}
}
