// Command backy-extract restores a single revision to a file, block
// device, or pipe, per spec.md section 6's restore CLI.
package main

import (
	"fmt"
	"os"

	"github.com/flyingcircusio/backy-extract/cmd/backy-extract/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "backy-extract: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
