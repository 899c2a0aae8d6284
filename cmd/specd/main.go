// specd CLI - Command-line interface for the specd contract toolkit
package main

import (
	"os"

	"github.com/getspecd/specd/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(cli.Execute(Version))
}
