package main

import (
	"os"

	"github.com/prepwise/interview-intel/internal/interfaces/cli"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute prints the error itself; just set the exit code here.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
