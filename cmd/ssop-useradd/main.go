// Package main is the entry point for the ssop-useradd command
package main

import (
	"fmt"
	"os"

	"github.com/aussiebroadwan/ssop/cmd/ssop-useradd/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
