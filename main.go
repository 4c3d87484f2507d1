package main

import (
	"os"

	_ "github.com/jubilantx-labs/jubilantx/extensions/meshify"
	"github.com/jubilantx-labs/jubilantx/internal/cli"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		os.Exit(1)
	}
}
