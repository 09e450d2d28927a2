package main

import (
	"os"

	"github.com/narrokit/narro/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
