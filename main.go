package main

import (
	"os"

	"github.com/samuelfneumann/navdqn/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
