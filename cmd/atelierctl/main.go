// Package main is the entry point for the atelierctl admin tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/atelier/cmd/atelierctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
