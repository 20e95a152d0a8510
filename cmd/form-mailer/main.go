// Package main is the entry point for the form mailer.
package main

import (
	"os"

	"github.com/shineum/form-mailer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
