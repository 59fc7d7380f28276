package main

import (
	"os"

	"github.com/namnv2496/gameforge/internal/command"
)

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
