package main

import (
	"os"

	"github.com/galiprandi/dimensions/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
