// Command agora administers the SQLite stores of the agora forum.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/agora/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
