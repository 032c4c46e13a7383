package main

import (
	"os"

	"exprc/cmd/exprc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
