// Package main provides the entry point for the indexsyn CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/indexsyn/cmd/indexsyn/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
