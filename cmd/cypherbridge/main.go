package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cypherbridge/cypherbridge/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Command errors were already emitted by their formatter; only
		// cobra-level errors (bad flags, unknown commands) need printing.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
