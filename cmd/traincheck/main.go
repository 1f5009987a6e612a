package main

import (
	"os"

	"github.com/vbonduro/traincheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
