package main

import (
	"os"

	"github.com/ecomlens/ecomlens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
