// Package main is the entry point for the srecd recording daemon.
package main

import (
	"os"

	"github.com/srec-dev/srec-go/cmd/srecd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
