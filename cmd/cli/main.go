package main

import (
	"os"

	"github.com/gatehouse-dev/gatehouse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
