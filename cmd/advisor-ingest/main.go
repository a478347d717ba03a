// Package main is the entry point for the catalog ingestion tool.
package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs/maxprocs"

	app "github.com/kart-io/advisor-x/internal/advisor"
)

func main() {
	if err := app.NewIngestCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
