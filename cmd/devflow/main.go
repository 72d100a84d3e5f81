package main

import (
	"os"

	"github.com/devflow/devflow/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
