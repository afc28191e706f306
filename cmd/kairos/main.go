package main

import (
	"os"

	"github.com/kairos-track/kairos/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
