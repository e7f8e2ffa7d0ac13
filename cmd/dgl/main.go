package main

import (
	"os"

	"github.com/msto63/dglrechner/cmd/dgl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
