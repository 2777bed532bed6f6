package main

import (
	"os"

	"reviewflow/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
