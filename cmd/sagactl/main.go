package main

import (
	"os"

	"sagachat/go-backend/cmd/sagactl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
