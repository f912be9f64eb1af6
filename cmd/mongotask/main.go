package main

import (
	"os"

	"github.com/edgerunner/cypress-mongodb/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.DefaultRunner).Execute(); err != nil {
		os.Exit(1)
	}
}
