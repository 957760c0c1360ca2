package main

import (
	"os"

	"github.com/rustyeddy/bbsma/cmd/bbsma/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
