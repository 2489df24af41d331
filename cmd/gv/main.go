package main

import (
	"os"

	"gitvault/cmd/gv/commands"
)

func main() {
	os.Exit(commands.Execute())
}
