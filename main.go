package main

import (
	"os"

	"github.com/hummingbird-labs/hummingbird/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
