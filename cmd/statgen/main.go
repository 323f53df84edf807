// Package main is the entry point for the statgen CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/statgen/cmd/statgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
