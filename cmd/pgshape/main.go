// Package main provides the pgshape CLI.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pgshape/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
