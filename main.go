package main

import (
	"os"

	"github.com/sastkit/sastkit/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
