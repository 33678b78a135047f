package main

import (
	"os"

	"github.com/dictachat/memcore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
