// Package main is the leapclean command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapclean/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
