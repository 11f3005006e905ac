package main

import (
	"os"

	"github.com/spencerwilf/proof-of-habit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
