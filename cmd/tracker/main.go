package main

import (
	"os"

	"osrs-trade-tracker/cmd/tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
